// Package sitecrawl migrates content from an already-published website into a
// structured content store. It crawls the site, builds a durable and resumable
// map of raw to processed URLs, infers missing hierarchy nodes, tracks redirect
// aliases, and exposes that map to an import phase that walks it.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, colly/, goquery/).
package sitecrawl
