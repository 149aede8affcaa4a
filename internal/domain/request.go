package domain

// MessagesMode selects the read path for a page request. Live re-queries the
// broker on every request and never persists; Cached populates the local
// store once and serves every subsequent page from it.
type MessagesMode string

const (
	MessagesModeLive   MessagesMode = "Live"
	MessagesModeCached MessagesMode = "Cached"
)

// PageOperation is the paging direction relative to the anchor.
type PageOperation string

const (
	PageNext PageOperation = "Next"
	PagePrev PageOperation = "Prev"
)

// Anchor identifies the boundary message of the adjacent page in cached
// pagination. It is partition-and-offset qualified; no global ordering across
// partitions is implied.
type Anchor struct {
	Partition int32
	Offset    int64
}

// MessagesRequest is the contract the presentation layer issues to get one
// page of messages.
type MessagesRequest struct {
	Mode       MessagesMode
	Refresh    bool
	Connection Connection
	Topic      Topic
	PageOp     PageOperation
	PageSize   int
	// Anchor is nil on the first page.
	Anchor *Anchor
	// Search is an optional substring filter over the message value
	// (cached mode only).
	Search string
	Fetch  FetchMode
	// FetchValue accompanies Fetch, see TopicCacheSettings.FetchValue.
	FetchValue int64
	// MaxMessages caps the per-partition window in live mode.
	MaxMessages int64
}

// MessagesResponse carries one page back to the presentation layer, together
// with the anchors the caller needs for the next/previous page and the
// (possibly updated) topic metadata. Delivered asynchronously on the messages
// service response channel.
type MessagesResponse struct {
	TaskID   string
	Total    int64
	Messages []Message
	Topic    *Topic
	PageSize int
	PageOp   PageOperation
	Search   string
	// FirstAnchor/LastAnchor are the boundary messages of this page, nil
	// when the page is empty.
	FirstAnchor *Anchor
	LastAnchor  *Anchor
	Err         error
}

// TotalPages derives the page count for the pagination UI.
func (r *MessagesResponse) TotalPages() int64 {
	if r.PageSize <= 0 {
		return 0
	}
	size := int64(r.PageSize)
	return (r.Total + size - 1) / size
}
