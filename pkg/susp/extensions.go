package susp

// ExtensionRecord is the decoded form of an "ER" system use entry, which
// registers one extension (e.g. Rock Ridge) as present in the volume's
// system use area per SUSP-112 5.5.
type ExtensionRecord struct {
	Version    int
	Identifier string
	Descriptor string
	Source     string
}

// ContinuationEntry is the decoded form of a "CE" system use entry. SUSP-112 5.1
type ContinuationEntry struct {
	blockLocation uint32
	offset        uint32
	lengthOfArea  uint32
}
