// Package protocol converts between the JSON frames exchanged with clients and
// the domain commands and responses used by game rooms.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/firgame/internal/model"
)

var validate = validator.New()

// MaxMessageLength caps chat text carried in a single frame
const MaxMessageLength = 512

// NotationInfo is the wire form of a board position
type NotationInfo struct {
	IsBlack bool `json:"is_black"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
}

// CommandInfo is an inbound client frame
type CommandInfo struct {
	Command  string        `json:"command" validate:"required"`
	Notation *NotationInfo `json:"notation,omitempty" validate:"required_if=Command Play"`
	Message  string        `json:"message,omitempty" validate:"max=512"`
}

// ResponseInfo is an outbound server frame
type ResponseInfo struct {
	Response string        `json:"response"`
	Notation *NotationInfo `json:"notation,omitempty"`
	Message  string        `json:"message,omitempty"`
}

var commandKinds = map[string]model.CommandKind{
	string(model.CommandPlay):       model.CommandPlay,
	string(model.CommandResign):     model.CommandResign,
	string(model.CommandOfferDraw):  model.CommandOfferDraw,
	string(model.CommandAcceptDraw): model.CommandAcceptDraw,
	string(model.CommandMessage):    model.CommandMessage,
}

var responseKinds = map[string]model.ResponseKind{
	string(model.ResponseStart):              model.ResponseStart,
	string(model.ResponseOpponentPlay):       model.ResponseOpponentPlay,
	string(model.ResponseOpponentResign):     model.ResponseOpponentResign,
	string(model.ResponseOpponentOfferDraw):  model.ResponseOpponentOfferDraw,
	string(model.ResponseOpponentAcceptDraw): model.ResponseOpponentAcceptDraw,
	string(model.ResponseGameEnd):            model.ResponseGameEnd,
	string(model.ResponseMessage):            model.ResponseMessage,
}

// DecodeCommand parses a client frame into a command for side.
// The side always comes from the connection, never from the payload.
func DecodeCommand(data []byte, side model.Side) (model.Command, error) {
	var info CommandInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", model.ErrInvalidCommand, err)
	}

	kind, ok := commandKinds[info.Command]
	if !ok {
		return model.Command{}, fmt.Errorf("%w: %q", model.ErrUnknownCommand, info.Command)
	}
	if err := validate.Struct(info); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", model.ErrInvalidCommand, err)
	}

	cmd := model.Command{Side: side, Kind: kind}
	switch kind {
	case model.CommandPlay:
		cmd.Coord = model.Coord{X: info.Notation.X, Y: info.Notation.Y}
	case model.CommandMessage:
		cmd.Text = info.Message
	}
	return cmd, nil
}

// EncodeCommand builds the client frame for cmd
func EncodeCommand(cmd model.Command) ([]byte, error) {
	if _, ok := commandKinds[string(cmd.Kind)]; !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCommand, cmd.Kind)
	}
	info := CommandInfo{Command: string(cmd.Kind)}
	switch cmd.Kind {
	case model.CommandPlay:
		info.Notation = &NotationInfo{IsBlack: cmd.Side.IsBlack(), X: cmd.Coord.X, Y: cmd.Coord.Y}
	case model.CommandMessage:
		info.Message = cmd.Text
	}
	return json.Marshal(info)
}

// EncodeResponse builds the server frame for resp
func EncodeResponse(resp model.Response) ([]byte, error) {
	if _, ok := responseKinds[string(resp.Kind)]; !ok {
		return nil, fmt.Errorf("unknown response %q", resp.Kind)
	}
	info := ResponseInfo{
		Response: string(resp.Kind),
		Message:  resp.Text,
	}
	if resp.Side != "" {
		info.Notation = &NotationInfo{IsBlack: resp.Side.IsBlack(), X: resp.Coord.X, Y: resp.Coord.Y}
	}
	return json.Marshal(info)
}

// DecodeResponse parses a server frame; used by clients
func DecodeResponse(data []byte) (model.Response, error) {
	var info ResponseInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return model.Response{}, fmt.Errorf("decode response: %w", err)
	}
	kind, ok := responseKinds[info.Response]
	if !ok {
		return model.Response{}, fmt.Errorf("unknown response %q", info.Response)
	}
	resp := model.Response{Kind: kind, Text: info.Message}
	if info.Notation != nil {
		resp.Side = model.SideFromBlack(info.Notation.IsBlack)
		resp.Coord = model.Coord{X: info.Notation.X, Y: info.Notation.Y}
	}
	return resp, nil
}
