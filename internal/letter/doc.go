// Package letter defines the core types and collaborator interfaces shared by
// the cover letter pipeline: posting acquisition, résumé storage, generation,
// rendering and event publication.
package letter
