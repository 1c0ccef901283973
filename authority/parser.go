package authority

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// ObjectType selects the not-found label used when the authority answers 401.
type ObjectType int

const (
	ObjectClient ObjectType = iota
	ObjectScope
)

func (o ObjectType) notFoundMessage() string {
	if o == ObjectScope {
		return "Scope not exists."
	}
	return "Client not exists."
}

// maxErrorBody bounds how much of an error body is kept.
const maxErrorBody = 4 << 10

// ParseResponse maps an authority response onto the error taxonomy and, for
// 200/201, decodes the body into v (when v is non-nil). It always closes the body.
func ParseResponse(resp *http.Response, obj ObjectType, v any) error {
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if v == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil && err != io.EOF {
			return errors.Internal("failed to decode authority response", err)
		}
		return nil
	case http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return errors.InvalidParameter("", errorMessage(resp.Body, "Invalid parameters provided."))
	case http.StatusUnauthorized:
		// The authority answers 401 for unknown clients; callers see it as absent.
		return errors.NotFound(obj.notFoundMessage())
	case http.StatusForbidden:
		return errors.Forbidden("The action is not allowed for this client.")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Internal("Unexpected behaviour noticed",
			fmt.Errorf("authority status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(r io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return fallback
	}
	var body struct {
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.ErrorDescription != "":
			return body.ErrorDescription
		case body.Error != "":
			return body.Error
		}
		return fallback
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return fallback
}

// ClientInfoToModel maps the fields present in info onto a persistence patch.
// Absent fields stay nil so a partial answer never clobbers stored values.
func ClientInfoToModel(info dto.ClientInformation) models.ClientPatch {
	var p models.ClientPatch
	p.ClientID = models.StringPtr(info.ID)
	p.Name = models.StringPtr(info.Name)
	if info.HostURIs != nil {
		p.HostURIs = append([]string(nil), info.HostURIs...)
	}
	p.Token = models.StringPtr(info.RegistrationToken)
	return p
}

// ClientFullInfo builds the view returned to the caller right after a
// register or read: the persisted subset plus redirect uris, secret and
// audience id.
func ClientFullInfo(info dto.ClientInformation) dto.FullClientInformation {
	p := ClientInfoToModel(info)
	full := dto.FullClientInformation{
		HostURIs:     p.HostURIs,
		RedirectURIs: info.RedirectURIs,
		Secret:       info.Secret,
		AudienceID:   info.AudienceID,
	}
	if p.ClientID != nil {
		full.ClientID = *p.ClientID
	}
	if p.Name != nil {
		full.Name = *p.Name
	}
	if p.Token != nil {
		full.Token = *p.Token
	}
	return full
}
