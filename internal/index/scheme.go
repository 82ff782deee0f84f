package index

var (
	bMeta = []byte("meta") // fullPath -> metaBytes
	bSlug = []byte("slug") // "{date}:{slug}" -> fullPath

	bIdxRecent = []byte("idx_recent") // recencyKey -> 1
	bIdxTag    = []byte("idx_tag")    // tag -> sub-bucket
	bIdxDate   = []byte("idx_date")   // date -> sub-bucket
)
