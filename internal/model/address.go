// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"encoding/json"
	"fmt"
)

// AddressKind discriminates the routing-address variants a GlobalDiscoveryEntry
// can carry. Dispatch happens on this tag alone — no substring probing of
// the serialized form.
type AddressKind string

const (
	AddressKindMqtt      AddressKind = "mqtt"
	AddressKindChannel   AddressKind = "channel"
	AddressKindWebSocket AddressKind = "websocket"
)

// Address is a tagged union over the routing-address shapes the message
// router understands. Exactly one of the variant fields is populated,
// selected by Kind.
type Address struct {
	Kind      AddressKind
	Mqtt      *MqttAddress
	Channel   *ChannelAddress
	WebSocket *WebSocketAddress
}

type MqttAddress struct {
	BrokerURI string `json:"brokerUri"`
	Topic     string `json:"topic"`
}

type ChannelAddress struct {
	MessagingEndpointURL string `json:"messagingEndpointUrl"`
	ChannelID            string `json:"channelId"`
}

type WebSocketAddress struct {
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Path     string `json:"path"`
}

type addressWire struct {
	Type      AddressKind       `json:"type"`
	Mqtt      *MqttAddress      `json:"mqtt,omitempty"`
	Channel   *ChannelAddress   `json:"channel,omitempty"`
	WebSocket *WebSocketAddress `json:"webSocket,omitempty"`
}

// MarshalJSON renders a with an explicit "type" discriminator; UnmarshalJSON
// is the single deserialize-dispatch point keyed on it.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressWire{
		Type:      a.Kind,
		Mqtt:      a.Mqtt,
		Channel:   a.Channel,
		WebSocket: a.WebSocket,
	})
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var w addressWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case AddressKindMqtt:
		if w.Mqtt == nil {
			return fmt.Errorf("model: address type %q missing mqtt payload", w.Type)
		}
		*a = Address{Kind: AddressKindMqtt, Mqtt: w.Mqtt}
	case AddressKindChannel:
		if w.Channel == nil {
			return fmt.Errorf("model: address type %q missing channel payload", w.Type)
		}
		*a = Address{Kind: AddressKindChannel, Channel: w.Channel}
	case AddressKindWebSocket:
		if w.WebSocket == nil {
			return fmt.Errorf("model: address type %q missing webSocket payload", w.Type)
		}
		*a = Address{Kind: AddressKindWebSocket, WebSocket: w.WebSocket}
	default:
		return fmt.Errorf("model: unknown address type %q", w.Type)
	}
	return nil
}

// NewMqttAddress builds a tagged MQTT address.
func NewMqttAddress(brokerURI, topic string) Address {
	return Address{Kind: AddressKindMqtt, Mqtt: &MqttAddress{BrokerURI: brokerURI, Topic: topic}}
}

// Serialize renders a to its opaque wire form, the form stored in
// GlobalDiscoveryEntry.Address.
func (a Address) Serialize() (string, error) {
	bs, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// ParseAddress deserializes the opaque address blob carried by a
// GlobalDiscoveryEntry. A failure here is per-entry and non-fatal to the
// caller.
func ParseAddress(raw string) (Address, error) {
	var a Address
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Address{}, err
	}
	return a, nil
}
