// This file builds AMF0 command bodies and allocates their transaction
// ids: the connect/createStream/publish sequence a real RTMP client
// drives. Matching responses to those ids happens in session.go.

package session

import (
	"campublish/internal/core/protocol/amf0"
)

const (
	cmdConnect        = "connect"
	cmdReleaseStream  = "releaseStream"
	cmdFCPublish      = "FCPublish"
	cmdFCUnpublish    = "FCUnpublish"
	cmdCreateStream   = "createStream"
	cmdDeleteStream   = "deleteStream"
	cmdPublish        = "publish"
	cmdOnStatus       = "onStatus"
	cmdResult         = "_result"
	cmdError          = "_error"
)

const publishTypeLive = "live"

// commandBuilder tracks the monotonic transaction id counter. It is
// session-task local: only the session task ever calls its methods.
type commandBuilder struct {
	nextTxnID float64
}

func newCommandBuilder() *commandBuilder {
	return &commandBuilder{nextTxnID: 1}
}

func (b *commandBuilder) allocTxnID() float64 {
	id := b.nextTxnID
	b.nextTxnID++
	return id
}

// buildConnect builds the connect command. Property order matches what a
// real FMLE-style encoder sends — some ingests reject a reordered connect
// object.
func (b *commandBuilder) buildConnect(target *Target) (body []byte, txnID float64, err error) {
	txnID = b.allocTxnID()
	obj := amf0.NewObject(
		amf0.Pair{Key: "app", Value: target.App},
		amf0.Pair{Key: "type", Value: "nonprivate"},
		amf0.Pair{Key: "flashVer", Value: "FMLE/3.0 (compatible; Lavf)"},
		amf0.Pair{Key: "tcUrl", Value: target.TcURL},
		amf0.Pair{Key: "fpad", Value: false},
		amf0.Pair{Key: "capabilities", Value: float64(15)},
		amf0.Pair{Key: "audioCodecs", Value: float64(4071)},
		amf0.Pair{Key: "videoCodecs", Value: float64(252)},
		amf0.Pair{Key: "videoFunction", Value: float64(1)},
	)
	body, err = amf0.EncodeValues(cmdConnect, txnID, obj)
	return body, txnID, err
}

func (b *commandBuilder) buildReleaseStream(streamKey string) (body []byte, txnID float64, err error) {
	txnID = b.allocTxnID()
	body, err = amf0.EncodeValues(cmdReleaseStream, txnID, amf0.Null{}, streamKey)
	return body, txnID, err
}

func (b *commandBuilder) buildFCPublish(streamKey string) (body []byte, txnID float64, err error) {
	txnID = b.allocTxnID()
	body, err = amf0.EncodeValues(cmdFCPublish, txnID, amf0.Null{}, streamKey)
	return body, txnID, err
}

func (b *commandBuilder) buildFCUnpublish(streamKey string) (body []byte, err error) {
	body, err = amf0.EncodeValues(cmdFCUnpublish, b.allocTxnID(), amf0.Null{}, streamKey)
	return body, err
}

func (b *commandBuilder) buildCreateStream() (body []byte, txnID float64, err error) {
	txnID = b.allocTxnID()
	body, err = amf0.EncodeValues(cmdCreateStream, txnID, amf0.Null{})
	return body, txnID, err
}

func (b *commandBuilder) buildDeleteStream(streamID float64) (body []byte, err error) {
	body, err = amf0.EncodeValues(cmdDeleteStream, b.allocTxnID(), amf0.Null{}, streamID)
	return body, err
}

// buildPublish builds the publish command. Its transaction id is always 0
// — the ingest correlates the publish response by onStatus's code, not by
// transaction id.
func (b *commandBuilder) buildPublish(streamKey string) (body []byte, err error) {
	body, err = amf0.EncodeValues(cmdPublish, float64(0), amf0.Null{}, streamKey, publishTypeLive)
	return body, err
}
