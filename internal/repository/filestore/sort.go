package filestore

import (
	"sort"

	"github.com/iliyamo/movieweb/internal/model"
)

func sortUsers(users []model.UserSummary) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
