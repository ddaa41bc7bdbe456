// Package prompt renders the three fixed prompts of the analysis pipeline:
// the HTML audit, the visual audit and the synthesis prompt.
//
// Templates are embedded into the binary.
package prompt
