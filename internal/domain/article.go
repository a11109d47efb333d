package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// articleIDLen is the number of hex characters used for generated article IDs.
const articleIDLen = 16

// Article is one collected scam-news item feeding the knowledge index.
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Content         string    `json:"content,omitempty"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	ScamType        ScamType  `json:"scam_type,omitempty"`
	Urgency         Urgency   `json:"urgency,omitempty"`
	ElderlySpecific bool      `json:"elderly_specific"`
	Indicators      []string  `json:"indicators,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	CollectedAt     time.Time `json:"collected_at"`
}

// DedupeKey returns the normalized title used for duplicate detection.
// Articles with the same key are collected once.
func (a *Article) DedupeKey() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// GenerateID derives a stable article ID from the title and URL.
func (a *Article) GenerateID() string {
	h := sha256.Sum256([]byte(a.DedupeKey() + "|" + a.URL))
	return hex.EncodeToString(h[:])[:articleIDLen]
}

// SearchText returns the text fields that the knowledge index matches
// transcripts against.
func (a *Article) SearchText() string {
	parts := make([]string, 0, 3)
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if len(a.Indicators) > 0 {
		parts = append(parts, strings.Join(a.Indicators, " "))
	}
	return strings.Join(parts, " ")
}

// Assessment is the knowledge index's judgement of one transcript.
type Assessment struct {
	Score      float64        `json:"score"`
	Matches    []PatternMatch `json:"matches,omitempty"`
	Insight    string         `json:"insight,omitempty"`
	AssessedAt time.Time      `json:"assessed_at"`
}

// PatternMatch records one indexed pattern that resembled the transcript.
type PatternMatch struct {
	Pattern  string   `json:"pattern"`
	Score    float64  `json:"score"`
	Source   string   `json:"source,omitempty"`
	ScamType ScamType `json:"scam_type,omitempty"`
	Urgency  Urgency  `json:"urgency,omitempty"`
}
