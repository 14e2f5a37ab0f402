// Package rtpklv contains a RTP decoder and encoder for KLV data, as defined by SMPTE ST 336.
// Specification: https://datatracker.ietf.org/doc/html/rfc6597
package rtpklv
