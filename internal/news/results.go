package news

import "fmt"

// ImageStatus enumerates the possible outcomes of an image acquisition.
type ImageStatus int

// Image acquisition outcomes.
const (
	ImageStored ImageStatus = iota
	ImageNoURL
	ImageTooSmall
	ImageCorrupt
	ImageDownloadError
)

// Sentinel references recorded in place of an image path.
const (
	SentinelNoImage       = "No Image"
	SentinelTooSmall      = "Image Too Small"
	SentinelCorrupt       = "Image Corrupt"
	SentinelDownloadError = "Image Download Error"
)

var sentinelByStatus = map[ImageStatus]string{
	ImageNoURL:         SentinelNoImage,
	ImageTooSmall:      SentinelTooSmall,
	ImageCorrupt:       SentinelCorrupt,
	ImageDownloadError: SentinelDownloadError,
}

// IsSentinelReference reports whether ref is one of the fixed non-path strings.
func IsSentinelReference(ref string) bool {
	for _, s := range sentinelByStatus {
		if s == ref {
			return true
		}
	}
	return false
}

func (s ImageStatus) String() string {
	switch s {
	case ImageStored:
		return "stored"
	case ImageNoURL:
		return "no_url"
	case ImageTooSmall:
		return "too_small"
	case ImageCorrupt:
		return "corrupt"
	case ImageDownloadError:
		return "download_error"
	default:
		return fmt.Sprintf("image_status(%d)", int(s))
	}
}

// ImageResult is returned by an ImageAcquirer. Path is only set when Status
// is ImageStored.
type ImageResult struct {
	Status ImageStatus
	Path   string
}

// StoredImage builds a successful ImageResult.
func StoredImage(path string) ImageResult {
	return ImageResult{Status: ImageStored, Path: path}
}

// FailedImage builds an ImageResult for a non-stored outcome.
func FailedImage(status ImageStatus) ImageResult {
	return ImageResult{Status: status}
}

// Reference returns the value persisted in Article.ImageReference: the stored
// path, or the sentinel explaining why there is none.
func (r ImageResult) Reference() string {
	if r.Status == ImageStored && r.Path != "" {
		return r.Path
	}
	if s, ok := sentinelByStatus[r.Status]; ok {
		return s
	}
	return SentinelDownloadError
}

// SkipReason explains why an insert did not create a row.
type SkipReason string

// Insert skip reasons.
const (
	DuplicateURL     SkipReason = "duplicate_url"
	DuplicateHeading SkipReason = "duplicate_heading"
)

// InsertResult is returned by ArticleStore.Insert.
type InsertResult struct {
	Inserted bool
	ID       int64
	Reason   SkipReason
}

// Inserted builds a successful InsertResult.
func Inserted(id int64) InsertResult {
	return InsertResult{Inserted: true, ID: id}
}

// Skipped builds an InsertResult for a unique-key conflict.
func Skipped(reason SkipReason) InsertResult {
	return InsertResult{Reason: reason}
}

// CandidateOutcome records what happened to one candidate article.
type CandidateOutcome string

// Candidate outcomes, in pipeline order.
const (
	CandidateAccepted         CandidateOutcome = "accepted"
	CandidateKnownURL         CandidateOutcome = "known_url"
	CandidateExtractFailed    CandidateOutcome = "extract_failed"
	CandidateShortBody        CandidateOutcome = "short_body"
	CandidateKnownHeading     CandidateOutcome = "known_heading"
	CandidateDuplicateOnWrite CandidateOutcome = "duplicate_on_insert"
	CandidateStoreError       CandidateOutcome = "store_error"
)

// SiteOutcome summarizes the processing of a single site.
type SiteOutcome struct {
	Site       string
	Attempted  int
	Accepted   int
	Candidates map[CandidateOutcome]int
	Err        error
}

// Record tallies one candidate outcome.
func (o *SiteOutcome) Record(c CandidateOutcome) {
	if o.Candidates == nil {
		o.Candidates = make(map[CandidateOutcome]int)
	}
	o.Candidates[c]++
	if c == CandidateAccepted {
		o.Accepted++
	}
}

// Failed reports whether the site could not be processed at all.
func (o SiteOutcome) Failed() bool {
	return o.Err != nil
}

// Summary aggregates one ingestion run. Sites is indexed in input order.
type Summary struct {
	RunID     string
	Sites     []SiteOutcome
	Attempted int
	Accepted  int
	Failed    int
}

// Add folds a site outcome into the totals.
func (s *Summary) Add(o SiteOutcome) {
	s.Attempted += o.Attempted
	s.Accepted += o.Accepted
	if o.Failed() {
		s.Failed++
	}
}
