// Package download implements the forced-download resolution routine: given
// a file record it either saves the bytes locally, hands delivery off to a
// mechanism whose success cannot be observed, or reports a clear failure.
// It never silently does nothing.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/aryasaputra/journalvault/pkg/resolve"
	"github.com/aryasaputra/journalvault/pkg/types"
)

// Outcome is the terminal state of one download attempt.
type Outcome string

const (
	// OutcomeSaved means the bytes were fetched and written locally.
	OutcomeSaved Outcome = "saved"
	// OutcomeCancelled means the user declined the confirmation step.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeUnconfirmed means a best-effort delivery mechanism was used;
	// whether the file actually reached disk cannot be observed.
	OutcomeUnconfirmed Outcome = "unconfirmed"
	// OutcomeFailed means no delivery URL could be produced or every
	// delivery mechanism reported failure.
	OutcomeFailed Outcome = "failed"
)

// Result reports how a download attempt ended and which strategy ended it.
type Result struct {
	Outcome  Outcome
	Strategy string
	Reason   string
}

// Confirmer presents the blocking confirmation step. Returning false
// cancels the download before any network activity.
type Confirmer interface {
	Confirm(file *types.FileRecord) bool
}

// LocalSaver persists fetched bytes under a filename. The browser original
// used a synthetic anchor click; non-browser targets write to disk.
type LocalSaver interface {
	Save(data []byte, filename string) error
}

// PassiveDeliveryTrigger hands a URL to a mechanism that may deliver the
// file without the response body ever being readable here (hidden frame in
// a browser, system browser hand-off elsewhere). Success is unobservable.
type PassiveDeliveryTrigger interface {
	Trigger(url string) error
}

// Navigator opens a URL in a top-level context as the last resort,
// accepting that the target may be previewed instead of saved.
type Navigator interface {
	Navigate(url string) error
}

// URLResolver produces the delivery URL for a storage key.
type URLResolver interface {
	Resolve(ctx context.Context, storageKey string) (string, error)
}

// stageOutcome tags the result of one delivery strategy.
type stageOutcome int

const (
	// stageBlocked: this mechanism did not deliver; try the next one.
	stageBlocked stageOutcome = iota
	// stageSaved: bytes confirmed on disk.
	stageSaved
	// stageUnconfirmed: delivery handed off, success unobservable.
	stageUnconfirmed
)

type strategy struct {
	name string
	run  func(ctx context.Context, file *types.FileRecord, url string) stageOutcome
}

// Engine orchestrates confirmation, URL resolution and the ordered list of
// delivery strategies.
type Engine struct {
	resolver  URLResolver
	confirmer Confirmer
	saver     LocalSaver
	trigger   PassiveDeliveryTrigger
	navigator Navigator
	client    *http.Client
}

func NewEngine(resolver URLResolver, confirmer Confirmer, saver LocalSaver, trigger PassiveDeliveryTrigger, navigator Navigator) *Engine {
	return &Engine{
		resolver:  resolver,
		confirmer: confirmer,
		saver:     saver,
		trigger:   trigger,
		navigator: navigator,
		client:    &http.Client{},
	}
}

// SetHTTPClient replaces the client used for binary retrieval.
func (e *Engine) SetHTTPClient(c *http.Client) {
	if c != nil {
		e.client = c
	}
}

// Download runs the full protocol for one file. Stages execute strictly in
// order and every stage boundary converts failure into the next fallback
// or a terminal result; no error escapes.
func (e *Engine) Download(ctx context.Context, file *types.FileRecord) Result {
	if !e.confirmer.Confirm(file) {
		return Result{Outcome: OutcomeCancelled, Strategy: "confirm"}
	}

	url, err := e.resolver.Resolve(ctx, file.StorageKey)
	if err != nil {
		return Result{
			Outcome:  OutcomeFailed,
			Strategy: "resolve",
			Reason:   fmt.Sprintf("no usable delivery URL: %v", err),
		}
	}

	strategies := []strategy{
		{name: "binary-fetch", run: e.fetchAndSave},
		{name: "passive-delivery", run: e.passiveDelivery},
		{name: "navigate", run: e.navigate},
	}

	for _, s := range strategies {
		switch s.run(ctx, file, url) {
		case stageSaved:
			return Result{Outcome: OutcomeSaved, Strategy: s.name}
		case stageUnconfirmed:
			return Result{
				Outcome:  OutcomeUnconfirmed,
				Strategy: s.name,
				Reason:   "delivery handed off, completion not verifiable",
			}
		case stageBlocked:
			// next strategy
		}
	}

	return Result{
		Outcome:  OutcomeFailed,
		Strategy: "exhausted",
		Reason:   "every delivery mechanism failed",
	}
}

// fetchAndSave is the primary path: retrieve the body as binary and save it
// locally. Never retried against the same URL; any failure is reported as
// blocked so the next mechanism takes over.
func (e *Engine) fetchAndSave(ctx context.Context, file *types.FileRecord, url string) stageOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return stageBlocked
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := e.client.Do(req)
	if err != nil {
		// Indistinguishable from a network or CORS block; stay silent
		// toward the user and fall through.
		log.Printf("Binary fetch blocked for %s: %v", file.StorageKey, err)
		return stageBlocked
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Binary fetch for %s returned HTTP %d", file.StorageKey, resp.StatusCode)
		return stageBlocked
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Reading body failed for %s: %v", file.StorageKey, err)
		return stageBlocked
	}

	name := file.DisplayName()
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if fromHeader := filenameFromDisposition(cd); fromHeader != "" {
			name = fromHeader
		}
	}

	if err := e.saver.Save(data, name); err != nil {
		log.Printf("Local save failed for %s: %v", file.StorageKey, err)
		return stageBlocked
	}
	return stageSaved
}

// passiveDelivery fires the hint-bearing URL variants at a mechanism that
// needs no body access. Fire and forget: the first variant accepted ends
// the stage with an unconfirmed result.
func (e *Engine) passiveDelivery(ctx context.Context, file *types.FileRecord, url string) stageOutcome {
	variants := HintVariants(url)
	for _, v := range variants {
		if err := e.trigger.Trigger(v); err != nil {
			log.Printf("Passive delivery variant rejected for %s: %v", file.StorageKey, err)
			continue
		}
		return stageUnconfirmed
	}
	return stageBlocked
}

func (e *Engine) navigate(ctx context.Context, file *types.FileRecord, url string) stageOutcome {
	if err := e.navigator.Navigate(url); err != nil {
		log.Printf("Navigation fallback failed for %s: %v", file.StorageKey, err)
		return stageBlocked
	}
	return stageUnconfirmed
}

// HintVariants lists the URL variants tried by the passive stage. The
// unmodified URL comes first: a presigned URL already forces an attachment
// disposition through its signed query, and appending any parameter would
// invalidate the signature. The raw attachment hints are added only for
// bare public URLs, where a server that ignores them does no harm.
func HintVariants(rawURL string) []string {
	variants := []string{rawURL}
	if u, err := neturl.Parse(rawURL); err != nil || u.RawQuery != "" {
		return variants
	}
	return append(variants,
		resolve.WithAttachmentHint(rawURL),
		resolve.WithParam(rawURL, "attachment", "1"),
	)
}

func filenameFromDisposition(cd string) string {
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}
