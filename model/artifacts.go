package model

import "log"

// Artifacts bundles whatever pretrained models could be loaded. Either field
// may be nil; the pipeline substitutes its heuristic path for a missing one.
type Artifacts struct {
	Contacts *ContactNet
	Speed    *SpeedGPR
}

// Load attempts both artifacts. Failures are logged and degrade the
// corresponding path permanently; they never abort startup. Empty paths skip
// loading silently.
func Load(contactsPath, speedPath string) *Artifacts {
	a := &Artifacts{}
	if contactsPath != "" {
		net, err := LoadContactNet(contactsPath)
		if err != nil {
			log.Printf("[Model] contact network unavailable, using heuristic detection: %v", err)
		} else {
			a.Contacts = net
			log.Printf("[Model] contact network loaded from %s (%d layers)", contactsPath, len(net.Layers))
		}
	}
	if speedPath != "" {
		g, err := LoadSpeedGPR(speedPath)
		if err != nil {
			log.Printf("[Model] speed regressor unavailable, using heuristic estimation: %v", err)
		} else {
			a.Speed = g
			log.Printf("[Model] speed regressor loaded from %s (%d support vectors)", speedPath, len(g.Support))
		}
	}
	return a
}
