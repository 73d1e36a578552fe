package engine

import "testing"

func TestImagePreviewString(t *testing.T) {
	p := ImagePreview{URL: "https://cdn.example.com/tmp/1.png", Alt: "a red fox"}
	want := "![a red fox](https://cdn.example.com/tmp/1.png)"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestImageResultString(t *testing.T) {
	tests := []struct {
		name string
		r    ImageResult
		want string
	}{
		{
			name: "single source",
			r:    ImageResult{Sources: []string{"/images/a.png"}, Alt: "a fox"},
			want: "[![a fox](/images/a.png)](/images/a.png)",
		},
		{
			name: "multiple sources are numbered",
			r:    ImageResult{Sources: []string{"/images/a.png", "/images/b.png"}, Alt: "foxes"},
			want: "[![#1 foxes](/images/a.png)](/images/a.png)\n[![#2 foxes](/images/b.png)](/images/b.png)",
		},
		{
			name: "no sources",
			r:    ImageResult{Alt: "empty"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
