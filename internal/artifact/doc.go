// Package artifact manages the side-panel document view derived from
// chat tool results.
//
// A subset of tool-result rich types (message previews, tailored
// resumes, resume scores) become Artifacts. The Panel deduplicates them
// by origin message id and stacks iterative resume edits as versions of
// one artifact instead of siblings, so the user navigates revisions in
// place.
package artifact
