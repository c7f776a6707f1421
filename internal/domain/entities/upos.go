package entities

// Universal part-of-speech tags.
const (
	UPOSAdj   = "ADJ"
	UPOSAdp   = "ADP"
	UPOSAdv   = "ADV"
	UPOSAux   = "AUX"
	UPOSCconj = "CCONJ"
	UPOSDet   = "DET"
	UPOSIntj  = "INTJ"
	UPOSNoun  = "NOUN"
	UPOSNum   = "NUM"
	UPOSPart  = "PART"
	UPOSPron  = "PRON"
	UPOSPropn = "PROPN"
	UPOSPunct = "PUNCT"
	UPOSSconj = "SCONJ"
	UPOSSym   = "SYM"
	UPOSVerb  = "VERB"
	UPOSX     = "X"
)

var uposTags = map[string]struct{}{
	UPOSAdj: {}, UPOSAdp: {}, UPOSAdv: {}, UPOSAux: {}, UPOSCconj: {}, UPOSDet: {},
	UPOSIntj: {}, UPOSNoun: {}, UPOSNum: {}, UPOSPart: {}, UPOSPron: {}, UPOSPropn: {},
	UPOSPunct: {}, UPOSSconj: {}, UPOSSym: {}, UPOSVerb: {}, UPOSX: {},
}

// IsKnownUPOS reports whether tag belongs to the closed universal tag set.
func IsKnownUPOS(tag string) bool {
	_, ok := uposTags[tag]
	return ok
}

// UPOSTags returns the closed tag set.
func UPOSTags() []string {
	return []string{
		UPOSAdj, UPOSAdp, UPOSAdv, UPOSAux, UPOSCconj, UPOSDet, UPOSIntj, UPOSNoun, UPOSNum,
		UPOSPart, UPOSPron, UPOSPropn, UPOSPunct, UPOSSconj, UPOSSym, UPOSVerb, UPOSX,
	}
}
