package model

import "testing"

// TestPageParams_Normalize は範囲外パラメータの丸めを検証する。
func TestPageParams_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		input PageParams
		want  PageParams
	}{
		{
			name:  "ゼロ値はデフォルトに丸められる",
			input: PageParams{},
			want:  PageParams{Skip: 0, Take: DefaultPageTake},
		},
		{
			name:  "負のskipは0になる",
			input: PageParams{Skip: -5, Take: 10},
			want:  PageParams{Skip: 0, Take: 10},
		},
		{
			name:  "負のtakeはデフォルトになる",
			input: PageParams{Skip: 10, Take: -1},
			want:  PageParams{Skip: 10, Take: DefaultPageTake},
		},
		{
			name:  "上限超過のtakeは上限に丸められる",
			input: PageParams{Skip: 0, Take: 500},
			want:  PageParams{Skip: 0, Take: MaxPageTake},
		},
		{
			name:  "範囲内はそのまま",
			input: PageParams{Skip: 20, Take: 50},
			want:  PageParams{Skip: 20, Take: 50},
		},
		{
			name:  "上限ちょうどはそのまま",
			input: PageParams{Skip: 0, Take: MaxPageTake},
			want:  PageParams{Skip: 0, Take: MaxPageTake},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.Normalize()
			if got != tt.want {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

// TestPageParams_Normalize_DoesNotMutateReceiver はNormalizeが値渡しで元の値を変更しないことを検証する。
func TestPageParams_Normalize_DoesNotMutateReceiver(t *testing.T) {
	p := PageParams{Skip: -1, Take: 500}
	_ = p.Normalize()

	if p.Skip != -1 || p.Take != 500 {
		t.Errorf("receiver mutated: %+v", p)
	}
}
