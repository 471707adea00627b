// Package store persists link, user, and QR-code records in Redis.
//
// Link metadata lives as a JSON blob under link:{slug}. Click counters
// live in a separate hash under hits:{slug} and are only ever touched
// with HINCRBY, so concurrent clicks and owner-initiated metadata saves
// can never lose each other's writes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"trimurl/model"

	"github.com/go-redis/redis/v8"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrSlugExists = errors.New("slug already exists")
)

const (
	linkKeyPrefix  = "link:"
	hitsKeyPrefix  = "hits:"
	linkIDIndexKey = "link:ids"

	fieldClicks      = "clicks"
	fieldLastClicked = "last"
)

// LinkStore is the slug → link record mapping.
type LinkStore struct {
	redis *redis.Client
}

func NewLinkStore(rdb *redis.Client) *LinkStore {
	return &LinkStore{redis: rdb}
}

func linkKey(slug string) string { return linkKeyPrefix + slug }
func hitsKey(slug string) string { return hitsKeyPrefix + slug }
func ownerLinksKey(userID string) string {
	return "user:links:" + userID
}

// FindBySlug returns the link record for a slug, without click counters.
func (s *LinkStore) FindBySlug(ctx context.Context, slug string) (*model.Link, error) {
	data, err := s.redis.Get(ctx, linkKey(slug)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByID resolves a record id to its link via the id index.
func (s *LinkStore) FindByID(ctx context.Context, id string) (*model.Link, error) {
	slug, err := s.redis.HGet(ctx, linkIDIndexKey, id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.FindBySlug(ctx, slug)
}

// CreateUnique stores a new link, failing with ErrSlugExists when the
// slug is already taken. SETNX is the uniqueness check and the write in
// one atomic step.
func (s *LinkStore) CreateUnique(ctx context.Context, link *model.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, linkKey(link.Slug), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSlugExists
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, linkIDIndexKey, link.ID, link.Slug)
	pipe.SAdd(ctx, ownerLinksKey(link.UserID), link.Slug)
	_, err = pipe.Exec(ctx)
	return err
}

// Save overwrites the metadata record. Click counters live in a separate
// hash, so a save cannot clobber in-flight increments.
func (s *LinkStore) Save(ctx context.Context, link *model.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, linkKey(link.Slug), data, 0).Err()
}

// Rename moves a link to a new slug, re-checking uniqueness. The hits
// hash follows the record so counters survive the rename.
func (s *LinkStore) Rename(ctx context.Context, oldSlug string, link *model.Link) error {
	if oldSlug == link.Slug {
		return s.Save(ctx, link)
	}

	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, linkKey(link.Slug), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSlugExists
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, linkKey(oldSlug))
	pipe.HSet(ctx, linkIDIndexKey, link.ID, link.Slug)
	pipe.SRem(ctx, ownerLinksKey(link.UserID), oldSlug)
	pipe.SAdd(ctx, ownerLinksKey(link.UserID), link.Slug)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return err
	}

	// RENAME fails when the source is missing; a link with no clicks has
	// no hits hash yet.
	if exists, err := s.redis.Exists(ctx, hitsKey(oldSlug)).Result(); err == nil && exists > 0 {
		return s.redis.Rename(ctx, hitsKey(oldSlug), hitsKey(link.Slug)).Err()
	}
	return nil
}

// Delete removes a link and its counters. Returns ErrNotFound when the
// slug does not exist or belongs to another user.
func (s *LinkStore) Delete(ctx context.Context, userID, slug string) error {
	link, err := s.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if link.UserID != userID {
		return ErrNotFound
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, linkKey(slug))
	pipe.Del(ctx, hitsKey(slug))
	pipe.HDel(ctx, linkIDIndexKey, link.ID)
	pipe.SRem(ctx, ownerLinksKey(userID), slug)
	_, err = pipe.Exec(ctx)
	return err
}

// ListByOwner returns all links created by the user, counters included.
func (s *LinkStore) ListByOwner(ctx context.Context, userID string) ([]model.Link, error) {
	slugs, err := s.redis.SMembers(ctx, ownerLinksKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	links := make([]model.Link, 0, len(slugs))
	for _, slug := range slugs {
		link, err := s.FindBySlug(ctx, slug)
		if err == ErrNotFound {
			// Stale index entry; skip.
			continue
		} else if err != nil {
			return nil, err
		}
		if err := s.attachStats(ctx, link); err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

// FindBySlugWithStats returns the link with click counters merged in.
func (s *LinkStore) FindBySlugWithStats(ctx context.Context, slug string) (*model.Link, error) {
	link, err := s.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.attachStats(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkStore) attachStats(ctx context.Context, link *model.Link) error {
	stats, err := s.Stats(ctx, link.Slug)
	if err != nil {
		return err
	}
	link.Clicks = stats.Clicks
	link.Stats = stats.Countries
	link.DeviceStats = stats.Devices
	link.BrowserStats = stats.Browsers
	link.OSStats = stats.OSes
	link.LastClickedAt = stats.LastClickedAt
	return nil
}

// RecordClick increments the bare click counter. This is the minimal
// durable signal and is issued before any enrichment.
func (s *LinkStore) RecordClick(ctx context.Context, slug string) error {
	return s.redis.HIncrBy(ctx, hitsKey(slug), fieldClicks, 1).Err()
}

// RecordClickDetail applies one combined dimensional update for a click.
// Every field is an independent HINCRBY, so concurrent recorders commute
// and no increment is lost.
func (s *LinkStore) RecordClickDetail(ctx context.Context, slug, country, city, device, browser, os string, at time.Time) error {
	key := hitsKey(slug)
	pipe := s.redis.TxPipeline()
	pipe.HIncrBy(ctx, key, countryField(country), 1)
	pipe.HIncrBy(ctx, key, cityField(country, city), 1)
	pipe.HIncrBy(ctx, key, deviceField(device), 1)
	pipe.HIncrBy(ctx, key, browserField(browser), 1)
	pipe.HIncrBy(ctx, key, osField(os), 1)
	pipe.HSet(ctx, key, fieldLastClicked, at.UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}

func countryField(country string) string { return "country|" + country }
func cityField(country, city string) string {
	return "city|" + country + "|" + city
}
func deviceField(device string) string   { return "device|" + device }
func browserField(browser string) string { return "browser|" + browser }
func osField(os string) string           { return "os|" + os }

// Stats reads the hits hash back into an aggregated view.
func (s *LinkStore) Stats(ctx context.Context, slug string) (model.ClickStats, error) {
	stats := model.ClickStats{
		Countries: map[string]model.CountryStats{},
		Devices:   map[string]int64{},
		Browsers:  map[string]int64{},
		OSes:      map[string]int64{},
	}

	fields, err := s.redis.HGetAll(ctx, hitsKey(slug)).Result()
	if err != nil {
		return stats, err
	}

	for field, raw := range fields {
		if field == fieldLastClicked {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				stats.LastClickedAt = &t
			}
			continue
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		switch {
		case field == fieldClicks:
			stats.Clicks = n
		case strings.HasPrefix(field, "country|"):
			country := strings.TrimPrefix(field, "country|")
			cs := stats.Countries[country]
			cs.Count = n
			if cs.Cities == nil {
				cs.Cities = map[string]int64{}
			}
			stats.Countries[country] = cs
		case strings.HasPrefix(field, "city|"):
			parts := strings.SplitN(strings.TrimPrefix(field, "city|"), "|", 2)
			if len(parts) != 2 {
				continue
			}
			cs := stats.Countries[parts[0]]
			if cs.Cities == nil {
				cs.Cities = map[string]int64{}
			}
			cs.Cities[parts[1]] = n
			stats.Countries[parts[0]] = cs
		case strings.HasPrefix(field, "device|"):
			stats.Devices[strings.TrimPrefix(field, "device|")] = n
		case strings.HasPrefix(field, "browser|"):
			stats.Browsers[strings.TrimPrefix(field, "browser|")] = n
		case strings.HasPrefix(field, "os|"):
			stats.OSes[strings.TrimPrefix(field, "os|")] = n
		}
	}

	return stats, nil
}

// DistinctTags returns the union of tags across the user's links.
func (s *LinkStore) DistinctTags(ctx context.Context, userID string) ([]string, error) {
	links, err := s.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var tags []string
	for _, link := range links {
		for _, tag := range link.Tags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	return tags, nil
}

// CountByOwner returns how many links the user has created.
func (s *LinkStore) CountByOwner(ctx context.Context, userID string) (int64, error) {
	return s.redis.SCard(ctx, ownerLinksKey(userID)).Result()
}
