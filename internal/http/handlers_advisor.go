package http

import (
	"net/http"

	"teddy/internal/advisor"
)

const advisorFailedMessage = "Leo is unavailable right now"

func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(advisor.Greeting(s.deps.Profile)).Write(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conversationID, message, err := ParseChatRequest(NewRequestBodyParser(w, r))
	if err != nil {
		writeError(w, r, err, advisorFailedMessage)
		return
	}

	reply, err := s.deps.Advisor.Reply(r.Context(),
		advisor.Request{ConversationID: conversationID, Message: message},
		s.deps.Profile, s.deps.Ledger.Transactions(), s.now())
	if err != nil {
		writeError(w, r, err, advisorFailedMessage)
		return
	}
	NewJSONResponse(reply).Write(w)
}

type profileResponse struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Version     string `json:"version"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := s.deps.Profile
	NewJSONResponse(profileResponse{
		Username:    p.Username,
		Email:       p.Email,
		DisplayName: p.DisplayName("User"),
		Version:     AppVersion,
	}).Write(w)
}
