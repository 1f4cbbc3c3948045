// Package sitecrawl crawls a website into plain-text page records for a
// retrieval pipeline. It discovers URLs from the site's sitemap, walks the
// site breadth-first within a single domain, fetches pages politely and
// extracts their visible text.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, etree/, sqlite/).
package sitecrawl
