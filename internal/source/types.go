package source

type (
	// FileID uniquely identifies a file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (stdin, tests).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM means a leading UTF-8 BOM was stripped; offsets are relative
	// to the content after it.
	FileHadBOM
	// FileKeepBOM asks Add to keep a leading BOM as content. Used for text
	// that is not a file, where U+FEFF is just another character.
	FileKeepBOM
)

// File captures the content of one scanned file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Flags   FileFlags
}

// LineCol represents a human-readable position in a file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, bytes
}
