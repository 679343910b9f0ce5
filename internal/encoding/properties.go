package encoding

import (
	"io"
	"time"
)

// property bit flags, MSB-first in the 16-bit presence word that precedes
// a content-header's property list (AMQP 0-9-1 §4.2.5.3).
const (
	flagContentType = 1 << 15
	flagContentEnc  = 1 << 14
	flagHeaders     = 1 << 13
	flagDeliveryMode = 1 << 12
	flagPriority    = 1 << 11
	flagCorrelationID = 1 << 10
	flagReplyTo     = 1 << 9
	flagExpiration  = 1 << 8
	flagMessageID   = 1 << 7
	flagTimestamp   = 1 << 6
	flagType        = 1 << 5
	flagUserID      = 1 << 4
	flagAppID       = 1 << 3
	flagClusterID   = 1 << 2
)

// BasicProperties is the optional-field property list carried by every
// content-header frame (§3, "content header").
type BasicProperties struct {
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string
	ClusterID       string
}

func (p *BasicProperties) flags() uint16 {
	var f uint16
	if p.ContentType != "" {
		f |= flagContentType
	}
	if p.ContentEncoding != "" {
		f |= flagContentEnc
	}
	if p.Headers != nil {
		f |= flagHeaders
	}
	if p.DeliveryMode > 0 {
		f |= flagDeliveryMode
	}
	if p.Priority > 0 {
		f |= flagPriority
	}
	if p.CorrelationID != "" {
		f |= flagCorrelationID
	}
	if p.ReplyTo != "" {
		f |= flagReplyTo
	}
	if p.Expiration != "" {
		f |= flagExpiration
	}
	if p.MessageID != "" {
		f |= flagMessageID
	}
	if !p.Timestamp.IsZero() {
		f |= flagTimestamp
	}
	if p.Type != "" {
		f |= flagType
	}
	if p.UserID != "" {
		f |= flagUserID
	}
	if p.AppID != "" {
		f |= flagAppID
	}
	if p.ClusterID != "" {
		f |= flagClusterID
	}
	return f
}

// WriteProperties encodes the presence-flags word followed by each present
// field, in declaration order, per §4.2.5.3.
func (p *BasicProperties) WriteProperties(w io.Writer) error {
	wr := newWriter(w)
	flags := p.flags()
	wr.WriteShort(flags)
	if flags&flagContentType != 0 {
		wr.WriteShortstr(p.ContentType)
	}
	if flags&flagContentEnc != 0 {
		wr.WriteShortstr(p.ContentEncoding)
	}
	if flags&flagHeaders != 0 {
		wr.WriteTable(p.Headers)
	}
	if flags&flagDeliveryMode != 0 {
		wr.WriteOctet(p.DeliveryMode)
	}
	if flags&flagPriority != 0 {
		wr.WriteOctet(p.Priority)
	}
	if flags&flagCorrelationID != 0 {
		wr.WriteShortstr(p.CorrelationID)
	}
	if flags&flagReplyTo != 0 {
		wr.WriteShortstr(p.ReplyTo)
	}
	if flags&flagExpiration != 0 {
		wr.WriteShortstr(p.Expiration)
	}
	if flags&flagMessageID != 0 {
		wr.WriteShortstr(p.MessageID)
	}
	if flags&flagTimestamp != 0 {
		wr.WriteTimestamp(p.Timestamp)
	}
	if flags&flagType != 0 {
		wr.WriteShortstr(p.Type)
	}
	if flags&flagUserID != 0 {
		wr.WriteShortstr(p.UserID)
	}
	if flags&flagAppID != 0 {
		wr.WriteShortstr(p.AppID)
	}
	if flags&flagClusterID != 0 {
		wr.WriteShortstr(p.ClusterID)
	}
	return wr.err
}

// ReadProperties decodes the presence-flags word and each present field.
func (p *BasicProperties) ReadProperties(r io.Reader) error {
	rd := newReader(r)
	flags := rd.ReadShort()
	if flags&flagContentType != 0 {
		p.ContentType = rd.ReadShortstr()
	}
	if flags&flagContentEnc != 0 {
		p.ContentEncoding = rd.ReadShortstr()
	}
	if flags&flagHeaders != 0 {
		p.Headers = rd.ReadTable()
	}
	if flags&flagDeliveryMode != 0 {
		p.DeliveryMode = rd.ReadOctet()
	}
	if flags&flagPriority != 0 {
		p.Priority = rd.ReadOctet()
	}
	if flags&flagCorrelationID != 0 {
		p.CorrelationID = rd.ReadShortstr()
	}
	if flags&flagReplyTo != 0 {
		p.ReplyTo = rd.ReadShortstr()
	}
	if flags&flagExpiration != 0 {
		p.Expiration = rd.ReadShortstr()
	}
	if flags&flagMessageID != 0 {
		p.MessageID = rd.ReadShortstr()
	}
	if flags&flagTimestamp != 0 {
		p.Timestamp = rd.ReadTimestamp()
	}
	if flags&flagType != 0 {
		p.Type = rd.ReadShortstr()
	}
	if flags&flagUserID != 0 {
		p.UserID = rd.ReadShortstr()
	}
	if flags&flagAppID != 0 {
		p.AppID = rd.ReadShortstr()
	}
	if flags&flagClusterID != 0 {
		p.ClusterID = rd.ReadShortstr()
	}
	return rd.err
}
