// Package analytics aggregates click telemetry after a redirect has been
// served. It is strictly fire-and-forget: nothing here can delay or fail
// the redirect that triggered it.
package analytics

import (
	"context"
	"time"

	"trimurl/geoip"
	"trimurl/store"

	"github.com/rs/zerolog/log"
)

// Recorder aggregates click counters and dimensional breakdowns into the
// slug's hit counters.
type Recorder struct {
	store *store.LinkStore
	geo   *geoip.Resolver
}

func NewRecorder(linkStore *store.LinkStore, geo *geoip.Resolver) *Recorder {
	return &Recorder{store: linkStore, geo: geo}
}

// Record processes one click. Callers invoke it in its own goroutine,
// after the redirect response has been sent; it is never awaited.
//
// The bare click counter is incremented first so the minimal signal
// survives even when every enrichment below fails. Each step is isolated:
// a geo failure still leaves the user-agent breakdown intact, and any
// storage failure is logged and dropped.
func (rec *Recorder) Record(slug, remoteAddr, forwardedFor, userAgent string) {
	ctx := context.Background()

	if err := rec.store.RecordClick(ctx, slug); err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to increment click counter")
	}

	ip := geoip.ClientIP(forwardedFor, remoteAddr)
	loc := rec.geo.LookupGeo(ctx, ip)
	client := geoip.ClassifyUserAgent(userAgent)

	err := rec.store.RecordClickDetail(ctx, slug,
		loc.Country, loc.City,
		client.Device, client.Browser, client.OS,
		time.Now())
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to record click breakdown")
		return
	}

	log.Debug().
		Str("slug", slug).
		Str("country", loc.Country).
		Str("city", loc.City).
		Str("browser", client.Browser).
		Str("os", client.OS).
		Str("device", client.Device).
		Msg("Click recorded")
}
