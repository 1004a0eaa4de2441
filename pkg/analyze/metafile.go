// Package analyze breaks bundle sizes down per input using the esbuild metafile.
package analyze

// Metafile is the subset of the esbuild metafile JSON read here.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
}

type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// Result is the breakdown of one bundled function.
type Result struct {
	Name       string
	TotalBytes int
	Inputs     []Input // largest contribution first
	Externals  []string
}

// Input is one source file's share of a bundle.
type Input struct {
	Path          string
	Bytes         int
	BytesInOutput int
	Percentage    float64
}
