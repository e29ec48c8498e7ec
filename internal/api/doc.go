// Package api implements the request pipeline every service in the SDK goes
// through: credential attachment, response normalization into the Envelope
// shape, a single refresh-and-retry on 401, and deferral of connectivity
// failures into a FIFO offline queue that drains when the network returns.
package api
