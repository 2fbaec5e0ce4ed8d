// Package remote implements the work-item and reconstruction sources on top of
// the NMCP GraphQL service.
//
// A Client lists pending precomputed entries, reports their outcome, and pages
// through the axon and dendrite samples of a reconstruction:
//
//	c, err := remote.New(url, func(o *remote.Options) {
//		o.AuthKey = key
//	})
//	items, err := c.Pending(ctx)
//
// Requests carry the configured key in the Authorization header, are rate
// limited, and are retried on transport errors and 5xx responses.
package remote
