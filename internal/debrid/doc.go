// Package debrid provides a Real-Debrid API client and the magnet
// conversion workflow built on it.
//
// # Overview
//
// The client is declared with the rest framework: every endpoint is a
// package-level rest.Operation, and Register records the body and URL
// argument mappers for all of them in a rest.Registry. NewClient binds that
// registry to a base URL and an access token; the token is injected as a
// bearer header by the client's interceptor.
//
//	reg := rest.NewRegistry()
//	if err := debrid.Register(reg); err != nil {
//		return err
//	}
//	client, err := debrid.NewClient(reg, "", token)
//
// # Endpoints
//
//   - GET /user: account details
//   - POST /unrestrict/link: hoster link to direct download link
//   - POST /torrents/addMagnet: submit a magnet link
//   - POST /torrents/selectFiles/{id}: choose files to download
//   - GET /torrents/info/{id}: torrent status, progress and links
//
// Failed calls return errors wrapping *rest.TransportError. When the body is
// a Real-Debrid error payload, *APIError is in the chain as well.
//
// # Conversion Workflow
//
// Converter.MagnetToURL walks a torrent through fixed stages:
//
//	submitted -> files selected -> polling -> ready | failed
//
// Polling fetches torrent info once per interval (one second by default)
// until links appear or the status is one of the failure statuses (error,
// magnet_error, virus, dead). A torrent with more than one link is refused
// with *MultiFileUnsupportedError. The polling phase is bounded by a
// timeout (30 minutes by default) and stops when the context is cancelled.
//
// Progress is reported two ways: plain messages through the callback passed
// to MagnetToURL, and structured Progress values through WithObserver.
//
// # Testing
//
// Poll waits use github.com/juju/clock, so tests drive time with
// testclock instead of sleeping.
package debrid
