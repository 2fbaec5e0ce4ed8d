// Package jsonsource serves neuron reconstructions from exported JSON files.
//
// A file holds {"neurons": [...]} where each neuron carries an idString, a
// soma, an optional sample and its axon and dendrite samples. A Source loaded
// from such files acts as both the work-item source and the reconstruction
// source of a worker, so local files go through the same pipeline as the
// remote service.
package jsonsource
