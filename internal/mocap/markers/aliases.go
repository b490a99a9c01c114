package markers

// aliases lists the known spellings of every role, highest priority first.
// Qualisys sports names come first, then Plug-in-Gait, then the Qualisys
// animation set and finally loose generic spellings.
var aliases = [RoleCount][]string{
	BodyBase: {"Q_WaistBack", "SACR", "SACRUM", "WaistBack", "BodyBase", "Sacrum"},
	LeftHip:  {"Q_WaistLFront", "LASI", "L_IAS", "L_ASIS", "WaistLFront", "LeftHip", "LHip"},
	RightHip: {"Q_WaistRFront", "RASI", "R_IAS", "R_ASIS", "WaistRFront", "RightHip", "RHip"},

	Neck:  {"Q_SpineTop", "C7", "TV7", "SpineTop", "Neck", "BackNeck"},
	Chest: {"Q_Chest", "STRN", "CLAV", "SJN", "SXS", "Chest", "Sternum"},
	Spine: {"Q_BackSpine", "T10", "TV10", "BackSpine", "Spine", "MidBack"},

	Head:      {"Q_HeadFront", "HeadFront", "FHD", "Head"},
	LeftHead:  {"Q_HeadL", "LBHD", "L_HEAD", "HeadL", "LeftHead"},
	RightHead: {"Q_HeadR", "RBHD", "R_HEAD", "HeadR", "RightHead"},
	HeadTop:   {"Q_HeadTop", "HeadTop", "VRTX", "SGL", "TopHead"},

	LeftShoulder:    {"Q_LShoulderTop", "LSHO", "L_SAE", "LShoulderTop", "LeftShoulder", "LShoulder"},
	LeftUpperArm:    {"Q_LArm", "LUPA", "L_UA", "LArm", "LeftUpperArm", "LUpperArm"},
	LeftElbow:       {"Q_LElbowOut", "LELB", "L_HLE", "LElbowOut", "LeftElbow", "LElbow"},
	LeftElbowInside: {"Q_LElbowIn", "LMEP", "L_HME", "LElbowIn", "LeftElbowInside"},
	LeftWrist:       {"Q_LWristOut", "LWRB", "L_USP", "LWristOut", "LeftWrist", "LWrist"},
	LeftWristRadius: {"Q_LWristIn", "LWRA", "L_RSP", "LWristIn", "LeftWristRadius"},
	LeftHand:        {"Q_LHandOut", "LFIN", "L_HM5", "LHandOut", "LeftHand", "LHand"},
	LeftIndex:       {"Q_LHand2", "LIDX", "L_HM2", "LHand2", "LeftIndex", "LIndex"},
	LeftThumb:       {"Q_LThumb", "LTHM", "L_THUMB", "LThumb", "LeftThumb"},

	RightShoulder:    {"Q_RShoulderTop", "RSHO", "R_SAE", "RShoulderTop", "RightShoulder", "RShoulder"},
	RightUpperArm:    {"Q_RArm", "RUPA", "R_UA", "RArm", "RightUpperArm", "RUpperArm"},
	RightElbow:       {"Q_RElbowOut", "RELB", "R_HLE", "RElbowOut", "RightElbow", "RElbow"},
	RightElbowInside: {"Q_RElbowIn", "RMEP", "R_HME", "RElbowIn", "RightElbowInside"},
	RightWrist:       {"Q_RWristOut", "RWRB", "R_USP", "RWristOut", "RightWrist", "RWrist"},
	RightWristRadius: {"Q_RWristIn", "RWRA", "R_RSP", "RWristIn", "RightWristRadius"},
	RightHand:        {"Q_RHandOut", "RFIN", "R_HM5", "RHandOut", "RightHand", "RHand"},
	RightIndex:       {"Q_RHand2", "RIDX", "R_HM2", "RHand2", "RightIndex", "RIndex"},
	RightThumb:       {"Q_RThumb", "RTHM", "R_THUMB", "RThumb", "RightThumb"},

	LeftUpperKnee:  {"Q_LThighFrontLow", "LTHI", "L_TH", "LThighFrontLow", "LeftUpperKnee", "LThigh"},
	LeftKnee:       {"Q_LKneeOut", "LKNE", "L_FLE", "LKneeOut", "LeftKnee", "LKnee"},
	LeftKneeInner:  {"Q_LKneeIn", "LKNM", "L_FME", "LKneeIn", "LeftKneeInner"},
	LeftShin:       {"Q_LShin", "LTIB", "L_SK", "LShin", "LeftShin"},
	LeftAnkle:      {"Q_LAnkleOut", "LANK", "L_FAL", "LAnkleOut", "LeftAnkle", "LAnkle"},
	LeftAnkleInner: {"Q_LAnkleIn", "LMED", "L_TAM", "LAnkleIn", "LeftAnkleInner"},
	LeftHeel:       {"Q_LHeelBack", "LHEE", "L_FCC", "LHeelBack", "LeftHeel", "LHeel"},
	LeftToe:        {"Q_LToeTip", "LTOE", "L_FM2", "LToeTip", "LeftToe", "LToe"},
	LeftToe5:       {"Q_LForefoot5", "LMT5", "L_FM5", "LForefoot5", "LeftToe5"},

	RightUpperKnee:  {"Q_RThighFrontLow", "RTHI", "R_TH", "RThighFrontLow", "RightUpperKnee", "RThigh"},
	RightKnee:       {"Q_RKneeOut", "RKNE", "R_FLE", "RKneeOut", "RightKnee", "RKnee"},
	RightKneeInner:  {"Q_RKneeIn", "RKNM", "R_FME", "RKneeIn", "RightKneeInner"},
	RightShin:       {"Q_RShin", "RTIB", "R_SK", "RShin", "RightShin"},
	RightAnkle:      {"Q_RAnkleOut", "RANK", "R_FAL", "RAnkleOut", "RightAnkle", "RAnkle"},
	RightAnkleInner: {"Q_RAnkleIn", "RMED", "R_TAM", "RAnkleIn", "RightAnkleInner"},
	RightHeel:       {"Q_RHeelBack", "RHEE", "R_FCC", "RHeelBack", "RightHeel", "RHeel"},
	RightToe:        {"Q_RToeTip", "RTOE", "R_FM2", "RToeTip", "RightToe", "RToe"},
	RightToe5:       {"Q_RForefoot5", "RMT5", "R_FM5", "RForefoot5", "RightToe5"},
}

// midpointPairs are tried in order when no single alias of a role is present.
var midpointPairs = map[Role][][2]string{
	BodyBase: {
		{"Q_WaistLBack", "Q_WaistRBack"},
		{"LPSI", "RPSI"},
		{"L_IPS", "R_IPS"},
		{"WaistLBack", "WaistRBack"},
	},
	Head: {
		{"Q_HeadLFront", "Q_HeadRFront"},
		{"LFHD", "RFHD"},
		{"L_FHD", "R_FHD"},
		{"HeadLFront", "HeadRFront"},
	},
	LeftToe: {
		{"Q_LForefoot2", "Q_LForefoot5"},
		{"LMT1", "LMT5"},
		{"L_FM1", "L_FM5"},
	},
	RightToe: {
		{"Q_RForefoot2", "Q_RForefoot5"},
		{"RMT1", "RMT5"},
		{"R_FM1", "R_FM5"},
	},
}

// Aliases returns the ordered spellings for a role, without prefix.
func Aliases(r Role) []string {
	if r < 0 || r >= RoleCount {
		return nil
	}
	out := make([]string, len(aliases[r]))
	copy(out, aliases[r])
	return out
}
