package document

// FileInfo describes one discovered file.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Dimensions are the native pixel dimensions of a document image. For PDF
// documents only the first page is measured; Pages carries the total so
// callers can warn about unsupported extra pages.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Pages  int `json:"pages"`
}

// rasterExtensions are the raster formats the review flow accepts. heic
// and heif appear in the corpus but no pure-Go decoder exists for them;
// they are rejected with a validation error rather than guessed at.
var rasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}
