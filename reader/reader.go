package reader

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"mailread/message"
	"mailread/model"
	"mailread/printer"
)

// Backend retrieves messages from a folder. GetMessages applies the
// seen flag to the fetched messages as a side effect; PeekMessages does
// not. Keeping the two as separate methods makes the mutation visible
// at the call site.
type Backend interface {
	GetMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error)
	PeekMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error)
	Close() error
}

// Params describes one read invocation.
type Params struct {
	Folder  string
	IDs     []string
	Preview bool
	Policy  model.HeaderPolicy
}

// Reader runs the read pipeline: fetch a batch of messages, render and
// extract each one, and hand the ordered collection to the printer.
type Reader struct {
	backend     Backend
	printer     printer.Printer
	readHeaders []string
	logger      *slog.Logger
}

func New(backend Backend, p printer.Printer, readHeaders []string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		backend:     backend,
		printer:     p,
		readHeaders: readHeaders,
		logger:      logger,
	}
}

// Run fetches the requested envelope ids in one batch and converts each
// message into its structured record, preserving the input id order.
// Fetch and render failures abort the invocation; a message the MIME
// parser rejects is kept with all header fields absent.
func (r *Reader) Run(ctx context.Context, params Params) error {
	started := time.Now()

	var (
		msgs []model.Message
		err  error
	)
	if params.Preview {
		msgs, err = r.backend.PeekMessages(ctx, params.Folder, params.IDs)
	} else {
		msgs, err = r.backend.GetMessages(ctx, params.Folder, params.IDs)
	}
	if err != nil {
		return &FetchError{Folder: params.Folder, Err: err}
	}

	collection := make(model.StructuredMessages, 0, len(msgs))
	parseFailures := 0

	for idx, msg := range msgs {
		id := envelopeID(params.IDs, idx)

		tpl, err := message.RenderTemplate(msg.Raw, params.Policy, r.readHeaders)
		if err != nil {
			return &RenderError{ID: id, Err: err}
		}

		var headers model.MessageHeaders
		if parsed, err := message.Parse(msg.Raw); err == nil {
			headers = message.ProjectHeaders(parsed)
		} else {
			parseFailures++
			r.logger.Warn("message not MIME-parsable, headers omitted", "id", id, "err", err)
		}

		collection = append(collection, model.StructuredMessage{
			ID:      id,
			Headers: headers,
			Body:    message.ExtractBody(tpl),
		})
	}

	r.logger.Info("read completed",
		"folder", params.Folder,
		"messages", len(collection),
		"preview", params.Preview,
		"parseFailures", parseFailures,
		"duration", time.Since(started))

	return r.printer.Out(collection)
}

// envelopeID picks the requested id for a position, or the positional
// index itself when the backend returned more messages than ids.
func envelopeID(ids []string, idx int) string {
	if idx < len(ids) {
		return ids[idx]
	}
	return strconv.Itoa(idx)
}
