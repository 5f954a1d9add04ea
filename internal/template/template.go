// Package template defines the contract with the external template engine
// that turns a merged page model into its final renderable form.
package template

// Engine is the external template engine boundary. Apply receives the merged
// model (metadata fields first, model fields winning on collision) and
// returns the renderable object plus the processed metadata object.
type Engine interface {
	Apply(conceptual bool, model map[string]any) (output map[string]any, metadata map[string]any, err error)
}

// Passthrough is the default engine: the model passes through untouched and
// metadata is echoed from the model's "metadata" field. Used when the site
// ships raw JSON models for client-side rendering.
type Passthrough struct{}

// Apply implements Engine.
func (Passthrough) Apply(conceptual bool, model map[string]any) (map[string]any, map[string]any, error) {
	metadata, _ := model["metadata"].(map[string]any)
	return model, metadata, nil
}

// Merge combines metadata and model objects into the template input:
// metadata fields first, model fields override on key collision.
func Merge(metadata, model map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+len(model))
	for k, v := range metadata {
		out[k] = v
	}
	for k, v := range model {
		out[k] = v
	}
	return out
}
