package identity

import (
	"strconv"

	"github.com/orris-inc/lineconnect/internal/domain/shared/events"
)

const EventTypeSessionEstablished = "identity.session_established"

// SessionEstablishedEvent is published whenever resolution ends in a login.
type SessionEstablishedEvent struct {
	events.Header
	LocalUserID  uint64      `json:"local_user_id"`
	ExternalUID  string      `json:"external_uid"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"display_name"`
	Method       LoginMethod `json:"method"`
	IsNewAccount bool        `json:"is_new_account"`
	Merged       bool        `json:"merged"`
}

func NewSessionEstablishedEvent(localUserID uint64, binding *Binding, method LoginMethod, isNew, merged bool) *SessionEstablishedEvent {
	e := &SessionEstablishedEvent{
		Header:       events.NewHeader(EventTypeSessionEstablished, strconv.FormatUint(localUserID, 10)),
		LocalUserID:  localUserID,
		Method:       method,
		IsNewAccount: isNew,
		Merged:       merged,
	}
	if binding != nil {
		e.ExternalUID = binding.ExternalUID
		e.Email = binding.Email
		e.DisplayName = binding.DisplayName
	}
	return e
}
