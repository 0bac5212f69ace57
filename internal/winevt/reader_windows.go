//go:build windows

package winevt

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/backoff"

	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/reader"
	"github.com/Swatto86/EventSleuth/internal/xmlparser"
)

// Source reads events from a live channel or an .evtx file through the
// Evt* API. It implements reader.EventSource; the session coordinator
// runs one Source.Start per selected source on its own goroutine.
type Source struct{}

// NewSource returns the Windows event source.
func NewSource() *Source { return &Source{} }

// Start runs the read pipeline for one source and always emits exactly
// one terminal message. All handles opened during the run are released
// before it returns.
func (s *Source) Start(opts reader.Options, cancel *atomic.Bool, tx chan<- reader.Message) {
	start := time.Now()

	total, err := readSource(opts, cancel, tx)
	if err != nil {
		kind, msg := classify(err)
		level.Warn(logger).Log("msg", "reader failed", "channel", opts.Channel, "kind", kind, "err", msg)
		tx <- reader.Error{Channel: opts.Channel, Kind: kind, Message: msg}
		return
	}

	tx <- reader.Complete{
		Channel:   opts.Channel,
		Total:     total,
		Elapsed:   time.Since(start),
		Cancelled: cancel.Load(),
	}
}

func classify(err error) (reader.Kind, string) {
	if apiErr, ok := err.(*model.WindowsAPIError); ok {
		return reader.ClassifyCode(apiErr.HResult), apiErr.Error()
	}
	if _, ok := err.(*model.XMLParseError); ok {
		return reader.KindParse, err.Error()
	}
	return reader.KindUnknown, err.Error()
}

// readSource opens the query and drains it batch by batch. Returns the
// number of records emitted.
func readSource(opts reader.Options, cancel *atomic.Bool, tx chan<- reader.Message) (int, error) {
	query, err := openQuery(opts)
	if err != nil {
		return 0, err
	}
	defer query.Close()

	cache := make(publisherCache)
	defer cache.close()

	renderBuf := make([]uint16, model.RenderBufferSize)
	formatBuf := make([]uint16, model.FormatBufferSize)
	handles := make([]Handle, model.BatchSize)

	maxEvents := opts.MaxEvents
	if maxEvents <= 0 {
		maxEvents = model.DefaultMaxEventsPerChannel
	}

	total := 0
	for {
		if cancel.Load() {
			return total, nil
		}
		if total >= maxEvents {
			level.Info(logger).Log("msg", "per-channel event limit reached",
				"channel", opts.Channel, "limit", maxEvents)
			return total, nil
		}

		want := maxEvents - total
		if want > len(handles) {
			want = len(handles)
		}

		returned, err := nextBatch(query, handles[:want], cancel)
		if err != nil {
			return total, err
		}
		if returned == 0 {
			return total, nil
		}

		if cancel.Load() {
			closeHandles(handles[:returned])
			return total, nil
		}

		batch := decodeBatch(opts.Channel, handles[:returned], cache, &renderBuf, &formatBuf)

		// Cancel is re-checked before every send so a cancelled reader
		// emits at most the batch already in flight.
		if cancel.Load() {
			return total, nil
		}
		total += len(batch)

		if len(batch) > 0 {
			// Blocks when the queue is full: back-pressure.
			tx <- reader.EventBatch{Channel: opts.Channel, Records: batch}
		}
		tx <- reader.Progress{Channel: opts.Channel, Count: total}
	}
}

func openQuery(opts reader.Options) (Handle, error) {
	flags := uint32(evtQueryChannelPath)
	if opts.FromFile {
		flags = evtQueryFilePath
	}
	if opts.ReverseChrono {
		flags |= evtQueryReverseDirection
	} else {
		flags |= evtQueryForwardDirection
	}

	xpath := reader.BuildXPath(opts)
	level.Debug(logger).Log("msg", "opening query", "channel", opts.Channel, "xpath", xpath)

	h, err := evtQuery(opts.Channel, xpath, flags)
	if err != nil {
		return 0, &model.WindowsAPIError{
			HResult: hresultOf(errnoCode(err)),
			Context: fmt.Sprintf("EvtQuery on %q", opts.Channel),
		}
	}
	return h, nil
}

// nextBatch fetches the next slice of event handles, retrying transient
// failures with exponential backoff. A zero count means end of stream.
func nextBatch(query Handle, handles []Handle, cancel *atomic.Bool) (uint32, error) {
	ctx := context.Background()
	retry := backoff.New(ctx, backoff.Config{
		MinBackoff: model.RetryBaseDelay,
		MaxBackoff: model.RetryBaseDelay << model.MaxRetryAttempts,
		MaxRetries: model.MaxRetryAttempts,
	})

	for {
		returned, err := evtNext(query, handles, uint32(model.EvtNextTimeout.Milliseconds()))
		if err == nil {
			return returned, nil
		}

		code := errnoCode(err)
		kind := reader.ClassifyCode(code)
		if kind != reader.KindTransient || !retry.Ongoing() || cancel.Load() {
			return 0, &model.WindowsAPIError{HResult: hresultOf(code), Context: "EvtNext"}
		}
		level.Debug(logger).Log("msg", "transient EvtNext error, backing off",
			"code", code, "attempt", retry.NumRetries())
		retry.Wait()
	}
}

// decodeBatch renders, formats, and decodes a batch of event handles,
// closing every handle. Individual decode failures drop the event and
// are counted, not fatal.
func decodeBatch(channel string, handles []Handle, cache publisherCache, renderBuf, formatBuf *[]uint16) []*model.EventRecord {
	batch := make([]*model.EventRecord, 0, len(handles))
	dropped := 0

	for i := range handles {
		h := &handles[i]

		xml, err := renderEventXML(*h, renderBuf)
		if err != nil {
			dropped++
			h.Close()
			continue
		}

		rec, err := xmlparser.Decode(xml, channel)
		if err != nil {
			dropped++
			h.Close()
			continue
		}

		if msg, ok := formatMessage(*h, rec.ProviderName, cache, formatBuf); ok {
			rec.Message = msg
		} else {
			rec.Message = eventDataFallback(rec)
		}
		h.Close()

		batch = append(batch, rec)
	}

	if dropped > 0 {
		level.Debug(logger).Log("msg", "dropped undecodable events",
			"channel", channel, "count", dropped)
	}
	return batch
}

func closeHandles(handles []Handle) {
	for i := range handles {
		handles[i].Close()
	}
}
