// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package rpcapi

import "github.com/bmwcarit/joynr-sub005/internal/model"

type addRequest struct {
	Entry                   discoveryEntryDTO `json:"entry"`
	AwaitGlobalRegistration bool              `json:"awaitGlobalRegistration"`
	Gbids                   []string          `json:"gbids,omitempty"`
}

type discoveryEntryDTO struct {
	ParticipantID          string            `json:"participantId"`
	ProviderVersionMajor   int32             `json:"providerVersionMajor"`
	ProviderVersionMinor   int32             `json:"providerVersionMinor"`
	Domain                 string            `json:"domain"`
	InterfaceName          string            `json:"interfaceName"`
	Scope                  string            `json:"scope"`
	Priority               int64             `json:"priority"`
	CustomParameters       map[string]string `json:"customParameters,omitempty"`
	SupportsOnChange       bool              `json:"supportsOnChange"`
	LastSeenDateMs         int64             `json:"lastSeenDateMs"`
	ExpiryDateMs           int64             `json:"expiryDateMs"`
	PublicKeyID            string            `json:"publicKeyId"`
}

func (d discoveryEntryDTO) toModel() model.DiscoveryEntry {
	scope := model.ScopeLocal
	if d.Scope == "GLOBAL" {
		scope = model.ScopeGlobal
	}
	return model.DiscoveryEntry{
		ParticipantID:   d.ParticipantID,
		ProviderVersion: model.Version{Major: d.ProviderVersionMajor, Minor: d.ProviderVersionMinor},
		Domain:          d.Domain,
		InterfaceName:   d.InterfaceName,
		Qos: model.ProviderQos{
			Scope:            scope,
			Priority:         d.Priority,
			CustomParameters: d.CustomParameters,
			SupportsOnChange: d.SupportsOnChange,
		},
		LastSeenDateMs: d.LastSeenDateMs,
		ExpiryDateMs:   d.ExpiryDateMs,
		PublicKeyID:    d.PublicKeyID,
	}
}

func fromModel(e model.DiscoveryEntryWithMetaInfo) discoveryEntryWithMetaDTO {
	return discoveryEntryWithMetaDTO{
		discoveryEntryDTO: discoveryEntryDTO{
			ParticipantID:        e.ParticipantID,
			ProviderVersionMajor: e.ProviderVersion.Major,
			ProviderVersionMinor: e.ProviderVersion.Minor,
			Domain:               e.Domain,
			InterfaceName:        e.InterfaceName,
			Scope:                e.Qos.Scope.String(),
			Priority:             e.Qos.Priority,
			CustomParameters:     e.Qos.CustomParameters,
			SupportsOnChange:     e.Qos.SupportsOnChange,
			LastSeenDateMs:       e.LastSeenDateMs,
			ExpiryDateMs:         e.ExpiryDateMs,
			PublicKeyID:          e.PublicKeyID,
		},
		IsLocal: e.IsLocal,
		Address: e.Address,
	}
}

type discoveryEntryWithMetaDTO struct {
	discoveryEntryDTO
	IsLocal bool   `json:"isLocal"`
	Address string `json:"address,omitempty"`
}

type discoveryQosDTO struct {
	DiscoveryScope              string `json:"discoveryScope"`
	CacheMaxAgeMs               int64  `json:"cacheMaxAgeMs"`
	DiscoveryTimeoutMs          int64  `json:"discoveryTimeoutMs"`
	ProviderMustSupportOnChange bool   `json:"providerMustSupportOnChange"`
}

func (q discoveryQosDTO) toModel() model.DiscoveryQos {
	scope := model.LocalThenGlobal
	switch q.DiscoveryScope {
	case "LOCAL_ONLY":
		scope = model.LocalOnly
	case "LOCAL_AND_GLOBAL":
		scope = model.LocalAndGlobal
	case "GLOBAL_ONLY":
		scope = model.GlobalOnly
	}
	return model.DiscoveryQos{
		DiscoveryScope:              scope,
		CacheMaxAgeMs:               q.CacheMaxAgeMs,
		DiscoveryTimeoutMs:          q.DiscoveryTimeoutMs,
		ProviderMustSupportOnChange: q.ProviderMustSupportOnChange,
	}
}

type errorDTO struct {
	Error string `json:"error"`
}
