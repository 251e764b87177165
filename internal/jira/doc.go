// Package jira talks to a Jira server over REST (API v2 and Agile 1.0)
// and exposes the cache-aware [Directory] the rest of jt reads from.
//
// [Client] is the plain network client. [CachedClient] layers the
// offline-first cache on top: boards, issue lists, and issue details
// are served from cache while fresh, refreshed (incrementally where
// the server supports it) when stale, and served stale when the
// network is down. Writes always go to the server.
package jira
