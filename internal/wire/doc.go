// Package wire encodes the messages exchanged with the microcontroller, the
// remote client and live viewers.
//
// Messages use the protobuf binary format, written and read field by field
// with protowire, and travel over streams with a varint length prefix.
// Decoders skip unknown fields so either side can grow new ones.
package wire
