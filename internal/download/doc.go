// Package download streams finished assets from their source URLs into a
// gocloud blob bucket.
//
// Keys are deterministic ("Croon-<id>.mp3") and write-once: an existing
// object is never overwritten. The session credential is renewed
// immediately before every fetch.
package download
