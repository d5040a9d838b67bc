//go:build linux && cgo

package alsa

/*
#cgo LDFLAGS: -lasound
#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include <alsa/asoundlib.h>

// playback_selem_names returns the names of the simple elements on card that
// have a playback volume or switch, in alsamixer order. The caller frees the
// result with free_names.
static char** playback_selem_names(int card_index, int* count) {
    snd_mixer_t *handle;
    snd_mixer_elem_t *elem;
    char card[64];
    char **names;
    int n = 0, i = 0;

    *count = 0;
    snprintf(card, sizeof(card), "hw:%d", card_index);

    if (snd_mixer_open(&handle, 0) < 0) return NULL;
    if (snd_mixer_attach(handle, card) < 0 ||
        snd_mixer_selem_register(handle, NULL, NULL) < 0 ||
        snd_mixer_load(handle) < 0) {
        snd_mixer_close(handle);
        return NULL;
    }

    for (elem = snd_mixer_first_elem(handle); elem; elem = snd_mixer_elem_next(elem)) {
        n++;
    }
    if (n == 0) {
        snd_mixer_close(handle);
        return NULL;
    }

    names = (char**)calloc(n, sizeof(char*));
    for (elem = snd_mixer_first_elem(handle); elem; elem = snd_mixer_elem_next(elem)) {
        if (!snd_mixer_selem_has_playback_volume(elem) &&
            !snd_mixer_selem_has_playback_switch(elem)) {
            continue;
        }
        names[i++] = strdup(snd_mixer_selem_get_name(elem));
    }

    snd_mixer_close(handle);
    if (i == 0) {
        free(names);
        return NULL;
    }
    *count = i;
    return names;
}

static void free_names(char** names, int count) {
    int i;
    if (names == NULL) return;
    for (i = 0; i < count; i++) {
        free(names[i]);
    }
    free(names);
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// getControlNamesInOrder returns the playback simple element names of a card
// in the order alsamixer lists them, without duplicates.
func (m *Mixer) getControlNamesInOrder(card uint) ([]string, error) {
	var count C.int
	cNames := C.playback_selem_names(C.int(card), &count)
	if cNames == nil {
		return nil, fmt.Errorf("failed to load simple elements for card %d", card)
	}
	defer C.free_names(cNames, count)

	raw := make([]string, 0, int(count))
	for _, cStr := range unsafe.Slice(cNames, int(count)) {
		raw = append(raw, C.GoString(cStr))
	}
	names, err := uniqueNames(raw)
	if err != nil {
		return nil, fmt.Errorf("card %d: %w", card, err)
	}
	return names, nil
}
