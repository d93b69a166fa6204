package pgstore

import "github.com/agentauth/core/internal/store"

var _ store.ChallengeStore = (*Store)(nil)
