package sandbox

import "github.com/dop251/goja"

// The prelude programs are compiled once at process start and run against
// every fresh VM. They define capability surface only; no user code or
// request data ever reaches them.

var textCodecProgram = goja.MustCompile("text_codec_prelude", `
(function (encode, decode) {
	globalThis.TextEncoder = class TextEncoder {
		get encoding() { return "utf-8"; }
		encode(input) {
			return new Uint8Array(encode(input === undefined ? "" : String(input)));
		}
	};
	globalThis.TextDecoder = class TextDecoder {
		get encoding() { return "utf-8"; }
		decode(input) {
			if (input === undefined) return "";
			return decode(input);
		}
	};
})(__encodeUTF8, __decodeUTF8);
`, false)

var webTypesProgram = goja.MustCompile("web_types_prelude", `
(function () {
	globalThis.Headers = class Headers {
		constructor(init) {
			this._map = {};
			if (!init) return;
			if (init instanceof Headers) {
				for (const k of Object.keys(init._map)) this._map[k] = init._map[k];
			} else if (Array.isArray(init)) {
				for (const pair of init) this.append(pair[0], pair[1]);
			} else {
				for (const k of Object.keys(init)) this.set(k, init[k]);
			}
		}
		get(name) {
			const v = this._map[String(name).toLowerCase()];
			return v === undefined ? null : v;
		}
		set(name, value) { this._map[String(name).toLowerCase()] = String(value); }
		append(name, value) {
			const k = String(name).toLowerCase();
			this._map[k] = this._map[k] === undefined ? String(value) : this._map[k] + ", " + String(value);
		}
		has(name) { return Object.prototype.hasOwnProperty.call(this._map, String(name).toLowerCase()); }
		forEach(fn) { for (const k of Object.keys(this._map)) fn(this._map[k], k, this); }
	};

	globalThis.Blob = class Blob {
		constructor(parts, options) {
			this._text = (parts || []).map(function (p) { return String(p); }).join("");
			this.type = options && options.type ? options.type : "";
		}
		get size() { return this._text.length; }
		text() { return this._text; }
	};

	globalThis.FormData = class FormData {
		constructor() { this._entries = []; }
		append(name, value) { this._entries.push([String(name), value]); }
		get(name) {
			for (const e of this._entries) if (e[0] === String(name)) return e[1];
			return null;
		}
		getAll(name) {
			const out = [];
			for (const e of this._entries) if (e[0] === String(name)) out.push(e[1]);
			return out;
		}
		has(name) {
			for (const e of this._entries) if (e[0] === String(name)) return true;
			return false;
		}
		forEach(fn) { for (const e of this._entries) fn(e[1], e[0], this); }
	};

	globalThis.Request = class Request {
		constructor(input, init) {
			init = init || {};
			this.url = String(input && input.url !== undefined ? input.url : input);
			this.method = String(init.method || (input && input.method) || "GET").toUpperCase();
			this.headers = new Headers(init.headers || (input && input.headers));
			this.body = init.body !== undefined ? init.body : (input && typeof input === "object" ? input.body : undefined);
		}
	};

	globalThis.Response = class Response {
		constructor(body, init) {
			init = init || {};
			this._body = body === undefined || body === null ? "" : String(body);
			this.status = init.status === undefined ? 200 : init.status;
			this.statusText = init.statusText || "";
			this.headers = new Headers(init.headers);
			this.ok = this.status >= 200 && this.status < 300;
		}
		text() { return this._body; }
		json() { return JSON.parse(this._body); }
	};
})();
`, false)
