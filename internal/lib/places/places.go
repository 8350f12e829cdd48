package places

import "strings"

// Place is a known city or district with its stable English name
type Place struct {
	NameGe string `json:"name_ge"`
	NameEn string `json:"name_en"`
}

// known holds the city and district names that appear in outage feeds.
// Translating these through an online service gives inconsistent results
// ("Batumi" vs "Batumi city"), so they are fixed here.
var known = []Place{
	{NameGe: "ბათუმი", NameEn: "Batumi"},
	{NameGe: "ქუთაისი", NameEn: "Kutaisi"},
	{NameGe: "ქობულეთი", NameEn: "Kobuleti"},
	{NameGe: "თბილისი", NameEn: "Tbilisi"},
	{NameGe: "ზუგდიდი", NameEn: "Zugdidi"},
	{NameGe: "ფოთი", NameEn: "Poti"},
	{NameGe: "ხელვაჩაური", NameEn: "Khelvachauri"},
	{NameGe: "ქედა", NameEn: "Keda"},
	{NameGe: "შუახევი", NameEn: "Shuakhevi"},
	{NameGe: "ხულო", NameEn: "Khulo"},
	{NameGe: "ოზურგეთი", NameEn: "Ozurgeti"},
	{NameGe: "სენაკი", NameEn: "Senaki"},
	{NameGe: "სამტრედია", NameEn: "Samtredia"},
	{NameGe: "ზესტაფონი", NameEn: "Zestaponi"},
	{NameGe: "ლანჩხუთი", NameEn: "Lanchkhuti"},
	{NameGe: "ჩოხატაური", NameEn: "Chokhatauri"},
	{NameGe: "წყალტუბო", NameEn: "Tskaltubo"},
	{NameGe: "მარტვილი", NameEn: "Martvili"},
	{NameGe: "ხობი", NameEn: "Khobi"},
	{NameGe: "აბაშა", NameEn: "Abasha"},
	{NameGe: "ტყიბული", NameEn: "Tkibuli"},
	{NameGe: "ჭიათურა", NameEn: "Chiatura"},
	{NameGe: "საჩხერე", NameEn: "Sachkhere"},
	{NameGe: "თერჯოლა", NameEn: "Terjola"},
	{NameGe: "ხონი", NameEn: "Khoni"},
	{NameGe: "წალენჯიხა", NameEn: "Tsalenjikha"},
	{NameGe: "ჩხოროწყუ", NameEn: "Chkhorotsku"},
	{NameGe: "მესტია", NameEn: "Mestia"},
	{NameGe: "გორი", NameEn: "Gori"},
	{NameGe: "თელავი", NameEn: "Telavi"},
	{NameGe: "რუსთავი", NameEn: "Rustavi"},
	{NameGe: "ბაღდათი", NameEn: "Baghdati"},
	{NameGe: "ვანი", NameEn: "Vani"},
	{NameGe: "ამბროლაური", NameEn: "Ambrolauri"},
	{NameGe: "ონი", NameEn: "Oni"},
	{NameGe: "ცაგერი", NameEn: "Tsageri"},
	{NameGe: "ლენტეხი", NameEn: "Lentekhi"},
}

var (
	byGe = make(map[string]Place, len(known))
	byEn = make(map[string]Place, len(known))
)

func init() {
	for _, p := range known {
		byGe[p.NameGe] = p
		byEn[strings.ToLower(p.NameEn)] = p
	}
}

// English returns the fixed English name for a Georgian place name
func English(nameGe string) (string, bool) {
	p, ok := byGe[strings.TrimSpace(nameGe)]
	return p.NameEn, ok
}

// Georgian returns the Georgian name for an English place name (case-insensitive)
func Georgian(nameEn string) (string, bool) {
	p, ok := byEn[strings.ToLower(strings.TrimSpace(nameEn))]
	return p.NameGe, ok
}

// All returns every known place
func All() []Place {
	out := make([]Place, len(known))
	copy(out, known)
	return out
}
