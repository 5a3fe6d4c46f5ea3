package classifier

import "testing"

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			in:   `{"emotion":"positive"}`,
			want: `{"emotion":"positive"}`,
		},
		{
			name: "markdown fenced",
			in:   "```json\n{\"emotion\":\"neutral\"}\n```",
			want: `{"emotion":"neutral"}`,
		},
		{
			name: "surrounding prose",
			in:   `Sure! Here is the result: {"emotion":"negative","topic":"bad pay"} hope it helps`,
			want: `{"emotion":"negative","topic":"bad pay"}`,
		},
		{
			name:    "no object",
			in:      "positive",
			wantErr: true,
		},
		{
			name:    "empty",
			in:      "",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSON(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
