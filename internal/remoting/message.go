package remoting

import (
	"github.com/movierun/movie/internal/path"
	"github.com/movierun/movie/internal/wire"
)

func userMessageEnvelope(target path.ActorPath, senderPath, tag string, payload []byte) *wire.Envelope {
	return &wire.Envelope{
		Kind:        wire.KindUserMessage,
		TargetPath:  target.String(),
		SenderPath:  senderPath,
		MessageType: tag,
		Payload:     payload,
	}
}

func askRequestEnvelope(target path.ActorPath, senderPath, tag string, payload []byte, corrID string) *wire.Envelope {
	return &wire.Envelope{
		Kind:          wire.KindAskRequest,
		TargetPath:    target.String(),
		SenderPath:    senderPath,
		MessageType:   tag,
		Payload:       payload,
		CorrelationID: corrID,
	}
}

// AskResponseFor constructs the AskResponse envelope a server sends back to
// an AskRequest's sender. err, when non-nil, sets Error and omits Payload.
func AskResponseFor(corrID, tag string, payload []byte, err error) *wire.Envelope {
	if err != nil {
		return &wire.Envelope{
			Kind:          wire.KindAskResponse,
			CorrelationID: corrID,
			Error:         err.Error(),
		}
	}
	return &wire.Envelope{
		Kind:          wire.KindAskResponse,
		CorrelationID: corrID,
		MessageType:   tag,
		Payload:       payload,
	}
}
