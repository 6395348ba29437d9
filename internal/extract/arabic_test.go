package extract

import "testing"

func TestCleanArabic(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"footer line between paragraphs",
			"حيث إن الطاعن\nCour de cassation - Bulletin des arrêts - Page 4/20\nيعيب على القرار",
			"حيث إن الطاعن\n\nيعيب على القرار",
		},
		{
			"inline footer",
			"القرار المطعون فيه www.juriscassation.ma page 12 / 30 أن المحكمة",
			"القرار المطعون فيه أن المحكمة",
		},
		{
			"short counter kept",
			"الصفحة Page 1/2 انتهى",
			"الصفحة Page 1/2 انتهى",
		},
		{
			"latin citation without counter kept",
			"طبقا للفصل Article 77 du Dahir des obligations et contrats",
			"طبقا للفصل Article 77 du Dahir des obligations et contrats",
		},
		{
			"replacement glyphs",
			"المحكمة\uFFFD\uFFFD \u25A1العليا\uE012",
			"المحكمة العليا",
		},
		{
			"presentation forms folded",
			"\uFE91\uFE8E\uFEB3\uFEE2 جلالة",
			"باسم جلالة",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanArabic(tt.in); got != tt.want {
				t.Fatalf("CleanArabic() = %q, want %q", got, tt.want)
			}
		})
	}
}
