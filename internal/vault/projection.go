package vault

// RecentVault is an entry of the recent-vaults history
type RecentVault struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	LastOpened string `json:"last_opened"`
}

// VaultInfo summarizes a vault for listings
type VaultInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	NoteCount  int    `json:"note_count"`
	TotalSize  int64  `json:"total_size"`
	LastOpened string `json:"last_opened"`
	IsCurrent  bool   `json:"is_current"`
}

// NewRecentVault projects v into a recent-vaults entry
func NewRecentVault(v Vault) RecentVault {
	return RecentVault{
		ID:         v.ID,
		Name:       v.Name,
		Path:       v.Path,
		LastOpened: v.LastOpened,
	}
}

// NewVaultInfo projects v into a listing entry tagged with current-ness
func NewVaultInfo(v Vault, isCurrent bool) VaultInfo {
	return VaultInfo{
		ID:         v.ID,
		Name:       v.Name,
		Path:       v.Path,
		NoteCount:  v.NoteCount,
		TotalSize:  v.TotalSize,
		LastOpened: v.LastOpened,
		IsCurrent:  isCurrent,
	}
}

// PushRecent puts entry at the front of list, dropping any older entry with
// the same ID and truncating to RecentCapacity. list is not modified.
func PushRecent(list []RecentVault, entry RecentVault) []RecentVault {
	out := make([]RecentVault, 0, len(list)+1)
	out = append(out, entry)
	for _, r := range list {
		if r.ID == entry.ID {
			continue
		}
		out = append(out, r)
	}
	if len(out) > RecentCapacity {
		out = out[:RecentCapacity]
	}
	return out
}
