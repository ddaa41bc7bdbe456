// Package htmlaudit extracts static accessibility facts from page HTML and
// shrinks the markup before it is sent to the model.
//
// The facts are cheap, deterministic checks (alt attributes, heading order,
// form labels, link text, language declaration, landmarks). They are added to
// the HTML audit prompt and shown in progress messages, but they never replace
// the model's critique.
package htmlaudit
