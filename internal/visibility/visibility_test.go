package visibility

import "testing"

func strPtr(s string) *string { return &s }

func TestVisible(t *testing.T) {
	tests := []struct {
		name   string
		scope  Scope
		viewer Viewer
		want   bool
	}{
		{
			name:   "unrestricted resource is visible to everyone",
			scope:  Scope{},
			viewer: Viewer{Role: "USER"},
			want:   true,
		},
		{
			name:   "unrestricted resource is visible without a position",
			scope:  Scope{},
			viewer: Viewer{Role: "USER", Position: nil},
			want:   true,
		},
		{
			name:   "role allow-list admits matching role",
			scope:  Scope{Roles: []string{"USER"}},
			viewer: Viewer{Role: "USER"},
			want:   true,
		},
		{
			name:   "role allow-list rejects other roles",
			scope:  Scope{Roles: []string{"ADMIN"}},
			viewer: Viewer{Role: "USER"},
			want:   false,
		},
		{
			name:   "position allow-list admits matching position",
			scope:  Scope{Positions: []string{"SALES_REP"}},
			viewer: Viewer{Role: "USER", Position: strPtr("SALES_REP")},
			want:   true,
		},
		{
			name:   "position allow-list rejects other positions",
			scope:  Scope{Positions: []string{"MANAGER"}},
			viewer: Viewer{Role: "USER", Position: strPtr("SALES_REP")},
			want:   false,
		},
		{
			name:   "position-restricted resource denies nil position even when role matches",
			scope:  Scope{Roles: []string{"USER"}, Positions: []string{"MANAGER"}},
			viewer: Viewer{Role: "USER", Position: nil},
			want:   false,
		},
		{
			name:   "both dimensions must pass",
			scope:  Scope{Roles: []string{"ADMIN"}, Positions: []string{"SALES_REP"}},
			viewer: Viewer{Role: "USER", Position: strPtr("SALES_REP")},
			want:   false,
		},
		{
			name:   "manager bypasses role restriction",
			scope:  Scope{Roles: []string{"ADMIN"}},
			viewer: Viewer{Role: "USER", Manager: true},
			want:   true,
		},
		{
			name:   "manager bypasses position restriction without a position",
			scope:  Scope{Positions: []string{"EXECUTIVE"}},
			viewer: Viewer{Role: "USER", Position: nil, Manager: true},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Visible(tt.scope, tt.viewer); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}
