package adapter

import "docbase.evalgo.org/dberr"

// ErrorEnvelopeFor renders err as the {error:{message,code}} response shape,
// defaulting to code 500 for unrecognized errors.
func ErrorEnvelopeFor(err error) Envelope {
	if err == nil {
		return Envelope{}
	}
	code := dberr.CodeOf(err)
	return Envelope{Err: &ErrorEnvelope{Message: err.Error(), Code: code}}
}
