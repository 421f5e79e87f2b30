package browser

import "github.com/entrhq/formpilot/pkg/dom"

// syncStateScript copies live control state into attributes so that
// page.Content reflects what the user already typed or toggled. Controls
// the real cascade hides get dom.HiddenMarker, which the offline style
// approximation cannot see otherwise.
const syncStateScript = `() => {
  const styleHidden = (el) => {
    const cs = getComputedStyle(el);
    if (cs.visibility === 'hidden' || cs.visibility === 'collapse') return true;
    for (let n = el; n; n = n.parentElement) {
      if (getComputedStyle(n).display === 'none') return true;
    }
    return false;
  };
  for (const el of document.querySelectorAll('input, textarea, select')) {
    el.toggleAttribute('` + dom.HiddenMarker + `', styleHidden(el));
    if (el instanceof HTMLTextAreaElement) {
      el.textContent = el.value;
    } else if (el instanceof HTMLSelectElement) {
      for (const o of el.options) o.toggleAttribute('selected', o.selected);
    } else if (el.type === 'checkbox' || el.type === 'radio') {
      el.toggleAttribute('checked', el.checked);
    } else if (el.type !== 'file') {
      el.setAttribute('value', el.value);
    }
  }
}`

// applyScript takes the JSON payload built by encodePayload and returns a
// JSON array of ApplyResult. Values go through the prototype setters so
// framework-wrapped inputs observe the change.
const applyScript = `(raw) => {
  const { events, writes } = JSON.parse(raw);
  const setter = (el, prop) => {
    const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
      : el instanceof HTMLSelectElement ? HTMLSelectElement.prototype
      : HTMLInputElement.prototype;
    return Object.getOwnPropertyDescriptor(proto, prop).set;
  };
  const notify = (el) => {
    for (const type of events) {
      el.dispatchEvent(new Event(type, { bubbles: true, cancelable: true }));
    }
    el.dispatchEvent(new Event('input', { bubbles: true, cancelable: true }));
  };
  const results = [];
  for (const w of writes) {
    const res = { selector: w.selector, label: w.label, ok: false };
    try {
      const el = document.querySelector(w.selector);
      if (!el) throw new Error('element not found');
      el.focus();
      if (w.kind === 'checked') {
        setter(el, 'checked').call(el, w.checked);
      } else if (w.kind === 'select') {
        const picked = new Set(w.indices || []);
        Array.from(el.options).forEach((o, i) => { o.selected = picked.has(i); });
      } else {
        setter(el, 'value').call(el, w.value || '');
      }
      notify(el);
      res.ok = true;
    } catch (e) {
      res.error = String(e && e.message || e);
    }
    results.push(res);
  }
  return JSON.stringify(results);
}`
