// ABOUTME: Page metadata port for the document-title side effect
// ABOUTME: Keeps the route guard testable without a real browser document

package routing

import "net/http"

// PageTitleHeader is the response header console clients read the document
// title from.
const PageTitleHeader = "X-Page-Title"

// PageMetadata receives page-level side effects from the dispatcher. The
// production implementation writes a response header; tests substitute a
// recording sink.
type PageMetadata interface {
	SetTitle(w http.ResponseWriter, title string)
}

// HeaderMetadata writes the page title to the PageTitleHeader response header.
type HeaderMetadata struct{}

// SetTitle implements PageMetadata.
func (HeaderMetadata) SetTitle(w http.ResponseWriter, title string) {
	w.Header().Set(PageTitleHeader, title)
}

// NopMetadata discards page metadata.
type NopMetadata struct{}

// SetTitle implements PageMetadata.
func (NopMetadata) SetTitle(http.ResponseWriter, string) {}
