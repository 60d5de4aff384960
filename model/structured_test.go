package model

import "testing"

func TestStructuredMessagesString(t *testing.T) {
	tests := []struct {
		name string
		msgs StructuredMessages
		want string
	}{
		{
			name: "empty collection",
			msgs: StructuredMessages{},
			want: "",
		},
		{
			name: "single message has no separators",
			msgs: StructuredMessages{{ID: "1", Body: "Hello"}},
			want: "Hello",
		},
		{
			name: "bodies joined by exactly one blank line",
			msgs: StructuredMessages{
				{ID: "1", Body: "one"},
				{ID: "2", Body: "two"},
				{ID: "3", Body: "three"},
			},
			want: "one\n\ntwo\n\nthree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msgs.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderPolicyVisible(t *testing.T) {
	configured := []string{"From", "Subject"}

	tests := []struct {
		name   string
		policy HeaderPolicy
		want   []string
	}{
		{
			name:   "hide all",
			policy: HeaderPolicy{Mode: HideAllHeaders},
			want:   nil,
		},
		{
			name:   "show only",
			policy: HeaderPolicy{Mode: ShowOnlyHeaders, Headers: []string{"Date"}},
			want:   []string{"Date"},
		},
		{
			name:   "configured",
			policy: HeaderPolicy{Mode: ShowConfiguredHeaders},
			want:   configured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Visible(configured)
			if len(got) != len(tt.want) {
				t.Fatalf("Visible() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Visible()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHeaderPolicyVisibleDefault(t *testing.T) {
	got := HeaderPolicy{Mode: ShowConfiguredHeaders}.Visible(nil)
	if len(got) != len(DefaultReadHeaders) {
		t.Fatalf("Visible(nil) = %v, want defaults %v", got, DefaultReadHeaders)
	}
}
