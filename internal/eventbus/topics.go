// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package eventbus

import "strings"

// Topics, relative to the configured subject prefix.
const (
	TopicMessageCreated = "chat.message_created"
	TopicMessagePinned  = "chat.message_pinned"
	TopicActivity       = "activity"
	TopicStageChanged   = "stage_changed"
	TopicNotification   = "notification"
)

// Metadata keys stamped on every published message.
const (
	MetadataSource = "source"
	MetadataTopic  = "topic"
)

// StreamChat is the subject shared by every chat topic.
const StreamChat = "chat.messages"

// relayedStreams lists the subjects the Relay consumes, relative to the prefix.
var relayedStreams = []string{
	StreamChat,
	TopicActivity,
	TopicStageChanged,
	TopicNotification,
}

// streamOf returns the subject a topic is published on.
func streamOf(topic string) string {
	switch topic {
	case TopicMessageCreated, TopicMessagePinned:
		return StreamChat
	}
	return topic
}

// Subject joins prefix and topic into a NATS subject.
func Subject(prefix, topic string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}
